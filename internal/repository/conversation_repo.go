package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// conversationKeyPrefix 会话列表键前缀
	conversationKeyPrefix = "chat:"

	// DefaultHistoryLimit 每个会话保留的消息数
	DefaultHistoryLimit = 10

	// DefaultHistoryTTL 会话过期时间
	DefaultHistoryTTL = 24 * time.Hour
)

// redisConversationRepository 基于Redis列表的会话历史
// 新消息LPUSH到表头，因此列表内是倒序
type redisConversationRepository struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

// NewConversationRepository 创建会话历史仓储
func NewConversationRepository(client *redis.Client) ConversationRepository {
	return &redisConversationRepository{
		client: client,
		limit:  DefaultHistoryLimit,
		ttl:    DefaultHistoryTTL,
	}
}

func conversationKey(id string) string {
	return conversationKeyPrefix + id
}

// Append 追加消息，截断到limit条并刷新过期时间
func (r *redisConversationRepository) Append(ctx context.Context, conversationID string, msg models.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := conversationKey(conversationID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(r.limit-1))
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// History 返回全部保留的消息，最早的在前
func (r *redisConversationRepository) History(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	return r.Recent(ctx, conversationID, r.limit)
}

// Recent 返回最近n条消息，最早的在前
func (r *redisConversationRepository) Recent(ctx context.Context, conversationID string, n int) ([]models.ChatMessage, error) {
	if n <= 0 {
		return nil, nil
	}

	values, err := r.client.LRange(ctx, conversationKey(conversationID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	messages := make([]models.ChatMessage, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(values[i]), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Delete 删除会话
func (r *redisConversationRepository) Delete(ctx context.Context, conversationID string) error {
	return r.client.Del(ctx, conversationKey(conversationID)).Err()
}
