package repository

import (
	"context"

	"github.com/fyerfyer/doc-summary-system/internal/models"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户，同名用户已存在时返回models.ErrUserExists
	Create(ctx context.Context, user *models.User) error

	// GetByID 根据ID获取用户，不存在时返回models.ErrUserNotFound
	GetByID(ctx context.Context, id string) (*models.User, error)

	// List 列出所有用户
	List(ctx context.Context) ([]*models.User, error)

	// Delete 删除用户及其全部记录
	Delete(ctx context.Context, id string) error
}

// RecordRepository 摘要记录仓储接口
type RecordRepository interface {
	// Create 创建记录，用户必须存在
	Create(ctx context.Context, record *models.Record) error

	// ListByUser 按创建时间倒序列出用户的记录
	ListByUser(ctx context.Context, userID string) ([]*models.Record, error)

	// Get 获取用户的某条记录，不存在时返回models.ErrRecordNotFound
	Get(ctx context.Context, userID string, recordID uint) (*models.Record, error)

	// Delete 删除用户的某条记录
	Delete(ctx context.Context, userID string, recordID uint) error

	// DeleteByUser 删除用户的所有记录，返回删除条数
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// ConversationRepository 会话历史仓储接口
type ConversationRepository interface {
	// Append 追加一条消息，只保留最近的消息
	Append(ctx context.Context, conversationID string, msg models.ChatMessage) error

	// History 按时间顺序返回会话消息
	History(ctx context.Context, conversationID string) ([]models.ChatMessage, error)

	// Recent 按时间顺序返回最近n条消息
	Recent(ctx context.Context, conversationID string, n int) ([]models.ChatMessage, error)

	// Delete 删除会话
	Delete(ctx context.Context, conversationID string) error
}
