package model

import (
	"mime/multipart"
)

// 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// Bounds 返回当前页在长度为total的列表中的起止下标
func (p *PaginationRequest) Bounds(total int) (int, int) {
	start := (p.GetPage() - 1) * p.GetPageSize()
	if start > total {
		start = total
	}
	end := start + p.GetPageSize()
	if end > total {
		end = total
	}
	return start, end
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"` // 名
	LastName  string `json:"last_name" binding:"required,max=100"`  // 姓
}

// UserURI 路径中的用户ID
type UserURI struct {
	ID string `uri:"id" binding:"required"`
}

// RecordURI 路径中的用户ID和记录ID
type RecordURI struct {
	ID       string `uri:"id" binding:"required"`
	RecordID uint   `uri:"rid" binding:"required,min=1"`
}

// FileSummaryRequest 文件摘要请求
type FileSummaryRequest struct {
	File        *multipart.FileHeader `form:"file" binding:"required"`                       // 上传的文件
	UserID      string                `form:"user_id" binding:"required"`                    // 用户ID
	DetailLevel string                `form:"detail_level" binding:"omitempty,detail_level"` // short、medium或detailed
	Async       bool                  `form:"async"`                                         // 是否异步处理
}

// TextSummaryRequest 文本摘要请求
type TextSummaryRequest struct {
	Text        string `json:"text" binding:"required"`
	DetailLevel string `json:"detail_level" binding:"omitempty,detail_level"`
}

// URLSummaryRequest 网页或YouTube摘要请求
type URLSummaryRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	URL         string `json:"url" binding:"required,url"`
	DetailLevel string `json:"detail_level" binding:"omitempty,detail_level"`
	Async       bool   `json:"async"`
}

// ChunkPreviewRequest 分块预览请求
type ChunkPreviewRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Key    string `json:"key" binding:"required"` // 文件的存储键
}

// TaskURI 路径中的任务ID
type TaskURI struct {
	ID string `uri:"id" binding:"required"`
}
