package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyerfyer/doc-summary-system/internal/database"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"gorm.io/gorm"
)

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 使用全局数据库连接创建用户仓储
func NewUserRepository() UserRepository {
	return &userRepository{db: database.MustDB()}
}

// NewUserRepositoryWithDB 使用指定的数据库连接创建用户仓储
func NewUserRepositoryWithDB(db *gorm.DB) UserRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &userRepository{db: db}
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.FirstName == "" || user.LastName == "" {
		return models.ErrInvalidUser
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.User{}).
			Where("first_name = ? AND last_name = ?", user.FirstName, user.LastName).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s %s", models.ErrUserExists, user.FirstName, user.LastName)
		}
		return tx.Create(user).Error
	})
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrUserNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

// List 列出所有用户
func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

// Delete 删除用户，同一事务内删除其记录
func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Record{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", models.ErrUserNotFound, id)
		}
		return nil
	})
}
