package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/repository"
	"github.com/sirupsen/logrus"
)

// UserService 用户与摘要记录管理
type UserService struct {
	users   repository.UserRepository
	records repository.RecordRepository
	logger  *logrus.Logger
}

// NewUserService 创建用户服务
func NewUserService(users repository.UserRepository, records repository.RecordRepository, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserService{users: users, records: records, logger: logger}
}

// CreateUser 创建用户，同名用户已存在时返回models.ErrUserExists
func (s *UserService) CreateUser(ctx context.Context, firstName, lastName string) (*models.User, error) {
	user := &models.User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User created")
	return user, nil
}

// GetUser 获取用户
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers 列出所有用户
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// DeleteUser 删除用户及其记录
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("user_id", id).Info("User deleted")
	return nil
}

// ListRecords 列出用户的摘要记录
func (s *UserService) ListRecords(ctx context.Context, userID string) ([]*models.Record, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.records.ListByUser(ctx, userID)
}

// GetRecord 获取用户的一条记录
func (s *UserService) GetRecord(ctx context.Context, userID string, recordID uint) (*models.Record, error) {
	return s.records.Get(ctx, userID, recordID)
}

// DeleteRecord 删除用户的一条记录
func (s *UserService) DeleteRecord(ctx context.Context, userID string, recordID uint) error {
	return s.records.Delete(ctx, userID, recordID)
}

// DeleteRecords 删除用户的所有记录
func (s *UserService) DeleteRecords(ctx context.Context, userID string) (int64, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return 0, err
	}
	n, err := s.records.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "deleted": n}).Info("Records deleted")
	return n, nil
}
