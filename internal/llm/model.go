package llm

import "time"

// MessageRole 消息角色类型
type MessageRole string

const (
	// RoleSystem 系统角色
	RoleSystem MessageRole = "system"
	// RoleUser 用户角色
	RoleUser MessageRole = "user"
	// RoleAssistant 助手角色
	RoleAssistant MessageRole = "assistant"
)

// Message 对话消息结构
type Message struct {
	Role    MessageRole `json:"role"`    // 角色
	Content string      `json:"content"` // 内容
}

// Response 统一的响应结构
type Response struct {
	Text       string    // 生成的文本
	TokenCount int       // 使用的token数，提供商未返回时为0
	ModelName  string    // 使用的模型名称
	FinishTime time.Time // 完成时间
}

// 常用模型名称
const (
	ModelQwenTurbo   = "qwen-turbo"       // 通义千问-Turbo
	ModelQwenPlus    = "qwen-plus"        // 通义千问-Plus
	ModelQwenLong    = "qwen-long"        // 通义千问-Long，长上下文
	ModelGeminiFlash = "gemini-1.5-flash" // Gemini 1.5 Flash，百万token上下文
	ModelGeminiPro   = "gemini-1.5-pro"   // Gemini 1.5 Pro
	ModelLlama3      = "llama3"           // Ollama本地模型
)

// tongyiRequest 通义千问请求结构
type tongyiRequest struct {
	Model      string             `json:"model"`
	Input      tongyiRequestInput `json:"input"`
	Parameters *tongyiParameters  `json:"parameters,omitempty"`
}

type tongyiRequestInput struct {
	Messages []Message `json:"messages"`
}

type tongyiParameters struct {
	Temperature  *float32 `json:"temperature,omitempty"`
	TopP         *float32 `json:"top_p,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty"`
	ResultFormat string   `json:"result_format,omitempty"` // message或text
}

// tongyiResponse 通义千问响应结构
type tongyiResponse struct {
	RequestID string       `json:"request_id"`
	Code      string       `json:"code"`    // 错误码（如果有）
	Message   string       `json:"message"` // 错误消息（如果有）
	Output    tongyiOutput `json:"output"`
	Usage     tongyiUsage  `json:"usage"`
}

type tongyiOutput struct {
	Text         *string        `json:"text"`
	FinishReason *string        `json:"finish_reason"`
	Choices      []tongyiChoice `json:"choices"`
}

type tongyiChoice struct {
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

type tongyiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
