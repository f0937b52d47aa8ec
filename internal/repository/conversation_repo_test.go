package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestConversationRepository_AppendAndHistory(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewConversationRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "conv-1", models.ChatMessage{Role: models.RoleUser, Content: "hi"}))
	require.NoError(t, repo.Append(ctx, "conv-1", models.ChatMessage{Role: models.RoleAssistant, Content: "hello"}))

	history, err := repo.History(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Content, "oldest message should come first")
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.False(t, history[0].CreatedAt.IsZero())

	ttl := mr.TTL("chat:conv-1")
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestConversationRepository_KeepsLastTen(t *testing.T) {
	_, client := setupRedis(t)
	repo := NewConversationRepository(client)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, repo.Append(ctx, "conv", models.ChatMessage{Role: models.RoleUser, Content: fmt.Sprintf("m%d", i)}))
	}

	history, err := repo.History(ctx, "conv")
	require.NoError(t, err)
	require.Len(t, history, DefaultHistoryLimit)
	assert.Equal(t, "m5", history[0].Content)
	assert.Equal(t, "m14", history[9].Content)

	recent, err := repo.Recent(ctx, "conv", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"m12", "m13", "m14"}, []string{recent[0].Content, recent[1].Content, recent[2].Content})
}

func TestConversationRepository_EmptyAndDelete(t *testing.T) {
	_, client := setupRedis(t)
	repo := NewConversationRepository(client)
	ctx := context.Background()

	history, err := repo.History(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, repo.Append(ctx, "gone", models.ChatMessage{Role: models.RoleUser, Content: "x"}))
	require.NoError(t, repo.Delete(ctx, "gone"))

	history, err = repo.History(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestConversationRepository_RedisDown(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewConversationRepository(client)
	mr.Close()

	err := repo.Append(context.Background(), "c", models.ChatMessage{Role: models.RoleUser, Content: "x"})
	assert.Error(t, err)
}
