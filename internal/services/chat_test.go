package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-summary-system/internal/llm"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/repository"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
)

func setupChat(t *testing.T) (*ChatService, *llm.MockClient, *fixture) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newFixture(t)
	model := llm.NewMockClient(t)
	svc := NewChatService(model, repository.NewConversationRepository(client), f.service(), WithChatLogger(quietLogger()))
	return svc, model, f
}

func TestChatSendMessage(t *testing.T) {
	svc, model, f := setupChat(t)
	ctx := context.Background()

	var seen []llm.Message
	model.EXPECT().Chat(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, messages []llm.Message, _ ...llm.CallOption) (*llm.Response, error) {
			seen = messages
			return &llm.Response{Text: "  Hello! How can I help?  "}, nil
		}).Times(1)

	reply, err := svc.SendMessage(ctx, ChatRequest{UserID: f.user.ID, Message: "Hi there"})
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", reply.Message)
	assert.True(t, strings.HasPrefix(reply.ConversationID, f.user.ID+"-"))
	assert.Zero(t, reply.RecordID)

	require.Len(t, seen, 2)
	assert.Equal(t, llm.RoleSystem, seen[0].Role)
	assert.Equal(t, DefaultSystemPrompt, seen[0].Content)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "Hi there"}, seen[1])

	history, err := svc.History(ctx, reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
}

func TestChatContextWindow(t *testing.T) {
	svc, model, f := setupChat(t)
	ctx := context.Background()

	var sizes []int
	model.EXPECT().Chat(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, messages []llm.Message, _ ...llm.CallOption) (*llm.Response, error) {
			sizes = append(sizes, len(messages))
			return &llm.Response{Text: "ok"}, nil
		}).Times(3)

	convID := NewConversationID(f.user.ID)
	for _, msg := range []string{"one", "two", "three"} {
		reply, err := svc.SendMessage(ctx, ChatRequest{UserID: f.user.ID, ConversationID: convID, Message: msg})
		require.NoError(t, err)
		assert.Equal(t, convID, reply.ConversationID)
	}

	// 系统提示词加最多3条最近消息
	assert.Equal(t, []int{2, 4, 4}, sizes)
}

func TestChatWithFile(t *testing.T) {
	svc, _, f := setupChat(t)
	ctx := context.Background()

	file := textFile("minutes.txt", "The board approved the budget.")
	reply, err := svc.SendMessage(ctx, ChatRequest{UserID: f.user.ID, File: &file, DetailLevel: summary.Short})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply.Message, "summary of"))
	assert.NotZero(t, reply.RecordID)

	record, err := f.records.Get(ctx, f.user.ID, reply.RecordID)
	require.NoError(t, err)
	assert.Regexp(t, `^`+f.user.ID+`-minutes\.txt-\d+$`, record.StorageKey)

	history, err := svc.History(ctx, reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Please summarize minutes.txt", history[0].Content)
	assert.Equal(t, reply.Message, history[1].Content)
}

func TestChatErrors(t *testing.T) {
	svc, model, f := setupChat(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, ChatRequest{UserID: f.user.ID, Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	model.EXPECT().Chat(mock.Anything, mock.Anything).Return(nil, errors.New("model unavailable")).Times(1)
	_, err = svc.SendMessage(ctx, ChatRequest{UserID: f.user.ID, Message: "hello"})
	assert.ErrorContains(t, err, "model unavailable")
}
