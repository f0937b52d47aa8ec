package model

import (
	"mime/multipart"
	"time"
)

// NewChatRequest 创建会话请求
type NewChatRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// NewChatResponse 创建会话响应
type NewChatResponse struct {
	ConversationID string `json:"conversation_id"`
}

// ChatURI 路径中的会话ID
type ChatURI struct {
	ConversationID string `uri:"conversation_id" binding:"required"`
}

// ChatMessageRequest 发送消息请求，可附带文件
type ChatMessageRequest struct {
	UserID      string                `form:"user_id" binding:"required"`
	Message     string                `form:"message"`
	File        *multipart.FileHeader `form:"file"`
	DetailLevel string                `form:"detail_level" binding:"omitempty,detail_level"`
}

// ChatMessageResponse 助手回复
type ChatMessageResponse struct {
	Message        string `json:"message"`
	RecordID       uint   `json:"record_id,omitempty"`
	ConversationID string `json:"conversation_id"`
}

// ChatMessageInfo 历史消息
type ChatMessageInfo struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistoryResponse 会话历史
type ChatHistoryResponse struct {
	ConversationID string            `json:"conversation_id"`
	Messages       []ChatMessageInfo `json:"messages"`
}
