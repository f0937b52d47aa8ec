package summary

import (
	"errors"
	"fmt"
)

// Stage 流水线阶段
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageChunking   Stage = "chunking"
	StageMapping    Stage = "mapping"
	StageReducing   Stage = "reducing"
)

// ErrAllChunksFailed 降级模式下所有分块都失败
var ErrAllChunksFailed = errors.New("all chunks failed")

// StageError 带阶段标记的流水线错误
// Error()不包含下游提供商的原始消息，原始错误通过Unwrap获取
type StageError struct {
	Stage      Stage
	ChunkIndex int // 从0开始，-1表示与具体分块无关
	ChunkTotal int
	Err        error
}

// NewStageError 创建与分块无关的阶段错误
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, ChunkIndex: -1, Err: err}
}

func (e *StageError) Error() string {
	if e.ChunkIndex >= 0 && e.ChunkTotal > 0 {
		return fmt.Sprintf("summarization failed at %s stage (chunk %d/%d)", e.Stage, e.ChunkIndex+1, e.ChunkTotal)
	}
	return fmt.Sprintf("summarization failed at %s stage", e.Stage)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf 返回错误链中的阶段，没有时返回空字符串
func StageOf(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
