package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrJobTimeout 异步任务在轮询次数用尽前未完成
var ErrJobTimeout = errors.New("extraction job timed out")

// ErrUnsupportedMedia 没有可处理该文件类型的提取器
var ErrUnsupportedMedia = errors.New("unsupported media type")

// ErrNoContent 提取结果为空
var ErrNoContent = errors.New("no content extracted")

// JobFailedError 提供商报告任务失败
type JobFailedError struct {
	JobID  string
	Reason string
}

func (e *JobFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("extraction job %s failed", e.JobID)
	}
	return fmt.Sprintf("extraction job %s failed: %s", e.JobID, e.Reason)
}

// SourceRef 待提取的已存储对象
type SourceRef struct {
	Key  string // 存储中的对象键，同时作为缓存标识
	Name string // 原始文件名，用于判断类型，为空时使用Key
}

// FileName 返回用于判断类型的文件名
func (s SourceRef) FileName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Key
}

// ExtractedDocument 提取结果
type ExtractedDocument struct {
	SourceRef string
	Text      string
	Length    int // 字符数
}

// Gateway 文本提取接口
type Gateway interface {
	Extract(ctx context.Context, ref SourceRef) (string, error)
}

// GatewayFunc 函数适配器
type GatewayFunc func(ctx context.Context, ref SourceRef) (string, error)

// Extract 调用函数本身
func (f GatewayFunc) Extract(ctx context.Context, ref SourceRef) (string, error) {
	return f(ctx, ref)
}

// ExtractDocument 提取并包装为ExtractedDocument
func ExtractDocument(ctx context.Context, g Gateway, ref SourceRef) (*ExtractedDocument, error) {
	text, err := g.Extract(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &ExtractedDocument{
		SourceRef: ref.Key,
		Text:      text,
		Length:    len([]rune(text)),
	}, nil
}

// Cache 提取结果缓存，cache.Cache满足该接口
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// 提取结果缓存时间
const resultTTL = time.Hour
