package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyerfyer/doc-summary-system/internal/database"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"gorm.io/gorm"
)

// recordRepository 摘要记录仓储实现
type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 使用全局数据库连接创建记录仓储
func NewRecordRepository() RecordRepository {
	return &recordRepository{db: database.MustDB()}
}

// NewRecordRepositoryWithDB 使用指定的数据库连接创建记录仓储
func NewRecordRepositoryWithDB(db *gorm.DB) RecordRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &recordRepository{db: db}
}

// Create 创建记录
func (r *recordRepository) Create(ctx context.Context, record *models.Record) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", record.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", models.ErrUserNotFound, record.UserID)
		}
		return tx.Create(record).Error
	})
}

// ListByUser 列出用户的记录，最新的在前
func (r *recordRepository) ListByUser(ctx context.Context, userID string) ([]*models.Record, error) {
	var records []*models.Record
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	return records, err
}

// Get 获取用户的某条记录
func (r *recordRepository) Get(ctx context.Context, userID string, recordID uint) (*models.Record, error) {
	var record models.Record
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", recordID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", models.ErrRecordNotFound, recordID)
		}
		return nil, err
	}
	return &record, nil
}

// Delete 删除用户的某条记录
func (r *recordRepository) Delete(ctx context.Context, userID string, recordID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", recordID, userID).
		Delete(&models.Record{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", models.ErrRecordNotFound, recordID)
	}
	return nil
}

// DeleteByUser 删除用户的所有记录
func (r *recordRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Record{})
	return result.RowsAffected, result.Error
}
