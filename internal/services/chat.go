package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fyerfyer/doc-summary-system/internal/llm"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/repository"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultSystemPrompt 对话的系统提示词
const DefaultSystemPrompt = `You are a helpful document analysis assistant. You can help users understand and summarize documents they upload.

When a user uploads a document and asks for summarization, analyze its content and provide a clear summary.
Answer follow-up questions about the document content accurately.

Always be helpful, accurate, and provide detailed responses when analyzing documents.`

// ErrEmptyMessage 消息和文件都为空
var ErrEmptyMessage = errors.New("message or file is required")

// defaultContextMessages 上下文中携带的最近消息数
const defaultContextMessages = 3

// ChatRequest 一条用户消息
type ChatRequest struct {
	UserID         string
	ConversationID string // 为空时创建新会话
	Message        string
	File           *FileInput // 附带的文件会被摘要
	DetailLevel    summary.DetailLevel
}

// ChatReply 助手回复
type ChatReply struct {
	Message        string `json:"message"`
	RecordID       uint   `json:"record_id,omitempty"`
	ConversationID string `json:"conversation_id"`
}

// ChatService 对话服务
// 历史保存在Redis中，附带文件时回复为文件摘要
type ChatService struct {
	client          llm.Client
	history         repository.ConversationRepository
	summaries       *SummaryService
	systemPrompt    string
	contextMessages int
	logger          *logrus.Logger
}

// ChatOption 对话服务配置选项
type ChatOption func(*ChatService)

// WithChatLogger 设置日志记录器
func WithChatLogger(logger *logrus.Logger) ChatOption {
	return func(s *ChatService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSystemPrompt 设置系统提示词
func WithSystemPrompt(prompt string) ChatOption {
	return func(s *ChatService) {
		if prompt != "" {
			s.systemPrompt = prompt
		}
	}
}

// NewChatService 创建对话服务
func NewChatService(client llm.Client, history repository.ConversationRepository, summaries *SummaryService, opts ...ChatOption) *ChatService {
	s := &ChatService{
		client:          client,
		history:         history,
		summaries:       summaries,
		systemPrompt:    DefaultSystemPrompt,
		contextMessages: defaultContextMessages,
		logger:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewConversationID 生成会话ID: <userID>-<uuid>
func NewConversationID(userID string) string {
	if userID == "" {
		return uuid.NewString()
	}
	return userID + "-" + uuid.NewString()
}

// SendMessage 处理一条用户消息并返回助手回复
func (s *ChatService) SendMessage(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if strings.TrimSpace(req.Message) == "" && req.File == nil {
		return nil, ErrEmptyMessage
	}
	if req.DetailLevel == "" {
		req.DetailLevel = summary.DefaultDetailLevel
	}

	convID := req.ConversationID
	if convID == "" {
		convID = NewConversationID(req.UserID)
	}
	log := s.logger.WithFields(logrus.Fields{"conversation_id": convID, "user_id": req.UserID})

	content := req.Message
	if content == "" {
		content = "Please summarize " + req.File.Name
	}
	if err := s.history.Append(ctx, convID, models.ChatMessage{Role: models.RoleUser, Content: content, CreatedAt: time.Now()}); err != nil {
		return nil, err
	}

	reply := &ChatReply{ConversationID: convID}
	if req.File != nil {
		out, err := s.summaries.summarizeFile(ctx, req.UserID, *req.File, req.DetailLevel, true)
		if err != nil {
			log.WithError(err).Error("Failed to summarize attached file")
			return nil, err
		}
		reply.Message = out.Summary
		reply.RecordID = out.RecordID
	} else {
		messages, err := s.buildContext(ctx, convID)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Chat(ctx, messages)
		if err != nil {
			log.WithError(err).Error("Chat completion failed")
			return nil, err
		}
		reply.Message = strings.TrimSpace(resp.Text)
	}

	err := s.history.Append(ctx, convID, models.ChatMessage{
		Role:      models.RoleAssistant,
		Content:   reply.Message,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.WithError(err).Warn("Failed to store assistant reply")
	}

	log.Info("Chat message processed")
	return reply, nil
}

// buildContext 系统提示词加最近几条消息
func (s *ChatService) buildContext(ctx context.Context, convID string) ([]llm.Message, error) {
	recent, err := s.history.Recent(ctx, convID, s.contextMessages)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(recent)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	for _, m := range recent {
		messages = append(messages, llm.Message{Role: llm.MessageRole(m.Role), Content: m.Content})
	}
	return messages, nil
}

// History 返回会话历史，最早的在前
func (s *ChatService) History(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	return s.history.History(ctx, conversationID)
}

// NewConversation 为已存在的用户创建会话ID
func (s *ChatService) NewConversation(ctx context.Context, userID string) (string, error) {
	if _, err := s.summaries.users.GetByID(ctx, userID); err != nil {
		return "", err
	}
	return NewConversationID(userID), nil
}
