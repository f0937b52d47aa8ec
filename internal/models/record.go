package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MediaType 摘要来源类型
type MediaType string

const (
	MediaFile    MediaType = "file"
	MediaURL     MediaType = "url"
	MediaYouTube MediaType = "youtube"
	MediaChat    MediaType = "chat"
)

// Record 摘要记录
// 每次针对用户的文件或URL生成摘要都会保存一条
type Record struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string         `gorm:"not null;index;size:36" json:"user_id"`
	MediaType   MediaType      `gorm:"not null;size:20" json:"media_type"`
	MediaName   string         `gorm:"not null" json:"media_name"`  // 原始文件名或URL
	StorageKey  string         `gorm:"size:512" json:"storage_key"` // 存储键，同时是摘要缓存标识
	DetailLevel string         `gorm:"size:20" json:"detail_level"` // short/medium/detailed
	Summary     string         `gorm:"type:text" json:"summary"`    // 摘要文本
	Metadata    datatypes.JSON `gorm:"type:json" json:"metadata"`   // 分块数、警告等
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

// RecordMetadata 记录元数据
type RecordMetadata struct {
	ChunkCount int      `json:"chunk_count"`
	FromCache  bool     `json:"from_cache"`
	Warnings   []string `json:"warnings,omitempty"`
	TaskID     string   `json:"task_id,omitempty"`
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (r *Record) BeforeCreate(tx *gorm.DB) (err error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return nil
}

// TableName 明确指定表名
func (Record) TableName() string {
	return "records"
}
