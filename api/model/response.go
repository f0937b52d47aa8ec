package model

import (
	"encoding/json"
	"time"

	"github.com/fyerfyer/doc-summary-system/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// PaginationResponse 分页响应信息
type PaginationResponse struct {
	Total    int `json:"total"`     // 总记录数
	Page     int `json:"page"`      // 当前页码
	PageSize int `json:"page_size"` // 每页大小
}

// UserListResponse 用户列表响应
type UserListResponse struct {
	PaginationResponse
	Users []*models.User `json:"users"`
}

// RecordInfo 摘要记录
type RecordInfo struct {
	ID          uint            `json:"id"`
	UserID      string          `json:"user_id"`
	MediaType   string          `json:"media_type"`
	MediaName   string          `json:"media_name"`
	StorageKey  string          `json:"storage_key,omitempty"`
	DetailLevel string          `json:"detail_level"`
	Summary     string          `json:"summary"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewRecordInfo 转换数据库记录
func NewRecordInfo(r *models.Record) RecordInfo {
	return RecordInfo{
		ID:          r.ID,
		UserID:      r.UserID,
		MediaType:   string(r.MediaType),
		MediaName:   r.MediaName,
		StorageKey:  r.StorageKey,
		DetailLevel: r.DetailLevel,
		Summary:     r.Summary,
		Metadata:    json.RawMessage(r.Metadata),
		CreatedAt:   r.CreatedAt,
	}
}

// RecordListResponse 记录列表响应
type RecordListResponse struct {
	PaginationResponse
	Records []RecordInfo `json:"records"`
}

// DeleteResponse 删除响应
type DeleteResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted,omitempty"`
}

// SummaryResponse 同步摘要响应
type SummaryResponse struct {
	Summary     string   `json:"summary"`
	DetailLevel string   `json:"detail_level"`
	RecordID    uint     `json:"record_id,omitempty"`
	StorageKey  string   `json:"storage_key,omitempty"`
	ChunkCount  int      `json:"chunk_count"`
	FromCache   bool     `json:"from_cache"`
	Warnings    []string `json:"warnings,omitempty"`
}

// TaskSubmitResponse 异步任务提交响应
type TaskSubmitResponse struct {
	TaskID     string `json:"task_id"`
	Status     string `json:"status"`
	StorageKey string `json:"storage_key,omitempty"`
}
