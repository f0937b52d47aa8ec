package models

import "time"

// MessageRole 消息角色类型
type MessageRole string

const (
	// RoleUser 用户角色
	RoleUser MessageRole = "user"
	// RoleSystem 系统角色
	RoleSystem MessageRole = "system"
	// RoleAssistant 助手角色
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage 会话中的单条消息
// 以JSON形式保存在Redis列表中
type ChatMessage struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}
