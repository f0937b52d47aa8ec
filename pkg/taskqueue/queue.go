package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Queue 定义任务队列的接口
// 负责任务的入队、获取状态和结果等操作
type Queue interface {
	// Enqueue 将任务加入队列
	Enqueue(ctx context.Context, taskType TaskType, ownerID string, payload interface{}) (string, error)

	// EnqueueIn 在指定延迟后将任务加入队列
	EnqueueIn(ctx context.Context, taskType TaskType, ownerID string, payload interface{}, delay time.Duration) (string, error)

	// GetTask 获取任务信息
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// GetTasksByOwner 获取用户发起的所有任务
	GetTasksByOwner(ctx context.Context, ownerID string) ([]*Task, error)

	// WaitForTask 等待任务结束并返回结果
	// timeout为0表示不设置超时
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)

	// DeleteTask 删除任务
	DeleteTask(ctx context.Context, taskID string) error

	// UpdateTaskStatus 更新任务状态和结果
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// Close 关闭队列连接
	Close() error
}

// Handler 任务处理器接口
type Handler interface {
	// ProcessTask 处理任务，返回的结果会保存到任务中
	ProcessTask(ctx context.Context, task *Task) (interface{}, error)
}

// HandlerFunc 函数适配器
type HandlerFunc func(ctx context.Context, task *Task) (interface{}, error)

// ProcessTask 调用函数本身
func (f HandlerFunc) ProcessTask(ctx context.Context, task *Task) (interface{}, error) {
	return f(ctx, task)
}

// Worker 工作者接口
// 负责运行一组Handler来处理队列中的任务
type Worker interface {
	// RegisterHandler 注册任务处理器
	RegisterHandler(taskType TaskType, handler Handler)

	// Start 启动工作者，开始处理任务
	Start() error

	// Stop 停止工作者
	Stop()
}

// Config 队列配置
type Config struct {
	RedisAddr     string         // Redis地址
	RedisPassword string         // Redis密码
	RedisDB       int            // Redis数据库
	Concurrency   int            // 并发处理任务数
	RetryLimit    int            // 最大重试次数
	RetryDelay    time.Duration  // 重试延迟
	TaskTimeout   time.Duration  // 单个任务的处理时限
	Queues        map[string]int // 队列名称到优先级的映射
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		RedisDB:     0,
		Concurrency: 4,
		RetryLimit:  2,
		RetryDelay:  30 * time.Second,
		TaskTimeout: 30 * time.Minute, // 转写任务最长轮询5分钟，加上摘要
		Queues: map[string]int{
			"default": 1,
		},
	}
}

// TaskInfo 返回给客户端的任务信息
type TaskInfo struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	Status      TaskStatus      `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Progress    float64         `json:"progress"` // 处理进度（0-100）
}

// NewTaskInfo 从Task创建TaskInfo
func NewTaskInfo(task *Task) *TaskInfo {
	return &TaskInfo{
		ID:          task.ID,
		Type:        task.Type,
		Status:      task.Status,
		Result:      task.Result,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
		Progress:    getTaskProgress(task),
	}
}

// getTaskProgress 根据任务状态估算进度
func getTaskProgress(task *Task) float64 {
	switch task.Status {
	case StatusProcessing, StatusFailed:
		return 50.0
	case StatusCompleted:
		return 100.0
	default:
		return 0.0
	}
}

// Factory 队列工厂函数类型
type Factory func(cfg *Config) (Queue, error)

// 队列工厂函数映射
var queueFactories = make(map[string]Factory)

// RegisterQueueFactory 注册队列工厂函数
func RegisterQueueFactory(name string, factory Factory) {
	queueFactories[name] = factory
}

// NewQueue 根据名称创建队列实例
func NewQueue(name string, cfg *Config) (Queue, error) {
	factory, exists := queueFactories[name]
	if !exists {
		return nil, fmt.Errorf("unknown queue implementation: %s", name)
	}
	return factory(cfg)
}

// ErrTaskNotFound 任务未找到错误
var ErrTaskNotFound = TaskError("task not found")

// ErrTaskTimeout 任务超时错误
var ErrTaskTimeout = TaskError("task timed out")

// ErrInvalidPayload 无效的任务载荷错误
var ErrInvalidPayload = TaskError("invalid task payload")

// TaskError 任务错误类型
type TaskError string

// Error 实现error接口
func (e TaskError) Error() string {
	return string(e)
}

// MarshalPayload 将任务载荷序列化为JSON
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload 将JSON反序列化为任务载荷
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return ErrInvalidPayload
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
