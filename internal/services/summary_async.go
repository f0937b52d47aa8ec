package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/fyerfyer/doc-summary-system/pkg/taskqueue"
	"github.com/sirupsen/logrus"
)

// ErrAsyncDisabled 未配置任务队列
var ErrAsyncDisabled = errors.New("async processing is not enabled")

// AsyncEnabled 是否启用了异步摘要
func (s *SummaryService) AsyncEnabled() bool {
	return s.queue != nil
}

// SubmitFile 上传文件后加入摘要队列，返回任务ID和存储键
func (s *SummaryService) SubmitFile(ctx context.Context, userID string, file FileInput, level summary.DetailLevel) (string, string, error) {
	if s.queue == nil {
		return "", "", ErrAsyncDisabled
	}
	if !level.Valid() {
		return "", "", summary.ErrInvalidDetailLevel
	}

	key, err := s.Upload(ctx, userID, file, false)
	if err != nil {
		return "", "", err
	}

	taskID, err := s.enqueue(ctx, &taskqueue.SummaryPayload{
		UserID:      userID,
		Source:      taskqueue.SourceFile,
		StorageKey:  key,
		FileName:    file.Name,
		DetailLevel: string(level),
	})
	return taskID, key, err
}

// SubmitURL 将URL摘要加入队列
func (s *SummaryService) SubmitURL(ctx context.Context, userID, url string, level summary.DetailLevel) (string, error) {
	if s.queue == nil {
		return "", ErrAsyncDisabled
	}
	if !level.Valid() {
		return "", summary.ErrInvalidDetailLevel
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return "", err
	}

	return s.enqueue(ctx, &taskqueue.SummaryPayload{
		UserID:      userID,
		Source:      taskqueue.SourceURL,
		URL:         url,
		DetailLevel: string(level),
	})
}

// SubmitText 将临时文本摘要加入队列
func (s *SummaryService) SubmitText(ctx context.Context, userID, text string, level summary.DetailLevel) (string, error) {
	if s.queue == nil {
		return "", ErrAsyncDisabled
	}
	if !level.Valid() {
		return "", summary.ErrInvalidDetailLevel
	}

	return s.enqueue(ctx, &taskqueue.SummaryPayload{
		UserID:      userID,
		Source:      taskqueue.SourceText,
		Text:        text,
		DetailLevel: string(level),
	})
}

func (s *SummaryService) enqueue(ctx context.Context, payload *taskqueue.SummaryPayload) (string, error) {
	taskID, err := s.queue.Enqueue(ctx, taskqueue.TaskSummarize, payload.UserID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue summary task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"task_id": taskID,
		"user_id": payload.UserID,
		"source":  payload.Source,
	}).Info("Summary task submitted")
	return taskID, nil
}

// GetTask 查询异步任务状态
func (s *SummaryService) GetTask(ctx context.Context, taskID string) (*taskqueue.TaskInfo, error) {
	if s.queue == nil {
		return nil, ErrAsyncDisabled
	}
	task, err := s.queue.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return taskqueue.NewTaskInfo(task), nil
}

// ProcessTask 执行摘要任务，实现taskqueue.Handler
func (s *SummaryService) ProcessTask(ctx context.Context, task *taskqueue.Task) (interface{}, error) {
	var payload taskqueue.SummaryPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return nil, err
	}

	level, err := summary.ParseDetailLevel(payload.DetailLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", taskqueue.ErrInvalidPayload, err)
	}

	s.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"user_id": payload.UserID,
		"source":  payload.Source,
	}).Info("Processing summary task")

	var out *SummaryOutput
	switch payload.Source {
	case taskqueue.SourceFile:
		out, err = s.SummarizeStored(ctx, payload.UserID, payload.StorageKey, payload.FileName, level)
	case taskqueue.SourceURL:
		out, err = s.SummarizeURL(ctx, payload.UserID, payload.URL, level)
	case taskqueue.SourceText:
		out, err = s.SummarizeText(ctx, payload.Text, level)
	default:
		return nil, fmt.Errorf("%w: unknown source %q", taskqueue.ErrInvalidPayload, payload.Source)
	}
	if err != nil {
		return nil, err
	}

	return &taskqueue.SummaryResult{
		Summary:    out.Summary,
		RecordID:   out.RecordID,
		ChunkCount: out.ChunkCount,
		FromCache:  out.FromCache,
		Warnings:   out.Warnings,
	}, nil
}

// ListTasks 列出用户提交的异步任务
func (s *SummaryService) ListTasks(ctx context.Context, userID string) ([]*taskqueue.TaskInfo, error) {
	if s.queue == nil {
		return nil, ErrAsyncDisabled
	}
	tasks, err := s.queue.GetTasksByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	infos := make([]*taskqueue.TaskInfo, len(tasks))
	for i, task := range tasks {
		infos[i] = taskqueue.NewTaskInfo(task)
	}
	return infos, nil
}
