package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskSummarize 异步摘要任务
	TaskSummarize TaskType = "summary:process"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Done 任务是否已结束
func (s TaskStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	OwnerID     string          `json:"owner_id"`     // 发起任务的用户ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷
	Result      json.RawMessage `json:"result"`       // 任务结果
	Error       string          `json:"error"`        // 错误信息（如果处理失败）
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// SourceKind 摘要任务的输入类型
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
	SourceText SourceKind = "text"
)

// SummaryPayload 摘要任务载荷
// 文件任务只携带存储键，文件在入队前已经上传
type SummaryPayload struct {
	UserID      string     `json:"user_id"`
	Source      SourceKind `json:"source"`
	StorageKey  string     `json:"storage_key,omitempty"` // 文件任务
	FileName    string     `json:"file_name,omitempty"`   // 原始文件名
	URL         string     `json:"url,omitempty"`         // URL任务
	Text        string     `json:"text,omitempty"`        // 文本任务
	DetailLevel string     `json:"detail_level"`
}

// SummaryResult 摘要任务结果
type SummaryResult struct {
	Summary    string   `json:"summary"`
	RecordID   uint     `json:"record_id,omitempty"`
	ChunkCount int      `json:"chunk_count"`
	FromCache  bool     `json:"from_cache"`
	Warnings   []string `json:"warnings,omitempty"`
}
