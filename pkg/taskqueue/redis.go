package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// 任务键前缀
	taskKeyPrefix = "task:"
	// 用户任务集合键前缀
	ownerTasksKeyPrefix = "owner_tasks:"
	// 任务状态通知频道前缀
	taskStatusChannel = "task_status:"
	// 默认任务过期时间（7天）
	defaultTaskExpiry = 7 * 24 * time.Hour
	// asynq默认队列
	defaultQueueName = "default"
)

// RedisQueue Redis任务队列实现
// 任务状态保存在Redis中，asynq只传递任务ID
type RedisQueue struct {
	client      *asynq.Client    // 用于添加任务
	inspector   *asynq.Inspector // 用于删除未处理的任务
	redisClient *redis.Client    // 保存任务状态
	cfg         *Config
	logger      *logrus.Logger
}

// NewRedisQueue 创建Redis任务队列实例
func NewRedisQueue(cfg *Config) (*RedisQueue, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opt := redisClientOpt(cfg)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 测试Redis连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &RedisQueue{
		client:      asynq.NewClient(opt),
		inspector:   asynq.NewInspector(opt),
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// SetLogger 替换日志记录器
func (q *RedisQueue) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		q.logger = logger
	}
}

func redisClientOpt(cfg *Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// Enqueue 将任务加入队列
func (q *RedisQueue) Enqueue(ctx context.Context, taskType TaskType, ownerID string, payload interface{}) (string, error) {
	return q.enqueue(ctx, taskType, ownerID, payload)
}

// EnqueueIn 在指定延迟后将任务加入队列
func (q *RedisQueue) EnqueueIn(ctx context.Context, taskType TaskType, ownerID string, payload interface{}, delay time.Duration) (string, error) {
	return q.enqueue(ctx, taskType, ownerID, payload, asynq.ProcessIn(delay))
}

func (q *RedisQueue) enqueue(ctx context.Context, taskType TaskType, ownerID string, payload interface{}, extra ...asynq.Option) (string, error) {
	taskID := uuid.New().String()

	payloadBytes, err := MarshalPayload(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := time.Now()
	task := &Task{
		ID:         taskID,
		Type:       taskType,
		OwnerID:    ownerID,
		Status:     StatusPending,
		Payload:    payloadBytes,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: q.cfg.RetryLimit,
	}

	if err := q.saveTask(ctx, task); err != nil {
		return "", fmt.Errorf("failed to save task to redis: %w", err)
	}

	// asynq任务ID与任务ID一致，删除时可以直接定位
	opts := []asynq.Option{
		asynq.TaskID(taskID),
		asynq.Queue(defaultQueueName),
		asynq.MaxRetry(q.cfg.RetryLimit),
	}
	if q.cfg.TaskTimeout > 0 {
		opts = append(opts, asynq.Timeout(q.cfg.TaskTimeout))
	}
	opts = append(opts, extra...)

	if _, err := q.client.EnqueueContext(ctx, asynq.NewTask(string(taskType), []byte(taskID)), opts...); err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	q.logger.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": taskType,
		"owner_id":  ownerID,
	}).Info("Task enqueued successfully")

	return taskID, nil
}

// GetTask 获取任务信息
func (q *RedisQueue) GetTask(ctx context.Context, taskID string) (*Task, error) {
	data, err := q.redisClient.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task from redis: %w", err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task data: %w", err)
	}
	return &task, nil
}

// GetTasksByOwner 获取用户发起的所有任务
func (q *RedisQueue) GetTasksByOwner(ctx context.Context, ownerID string) ([]*Task, error) {
	taskIDs, err := q.redisClient.SMembers(ctx, ownerTasksKeyPrefix+ownerID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get owner tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		task, err := q.GetTask(ctx, taskID)
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				// 任务可能已过期被删除，跳过
				continue
			}
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// WaitForTask 等待任务结束
// 订阅状态通知，同时每秒轮询一次以防漏掉通知
func (q *RedisQueue) WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	pubsub := q.redisClient.Subscribe(ctx, taskStatusChannel+taskID)
	defer pubsub.Close()

	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status.Done() {
		return task, nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrTaskTimeout
		case <-pubsub.Channel():
		case <-ticker.C:
		}

		task, err := q.GetTask(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrTaskTimeout
			}
			return nil, err
		}
		if task.Status.Done() {
			return task, nil
		}
	}
}

// DeleteTask 删除任务
func (q *RedisQueue) DeleteTask(ctx context.Context, taskID string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	if task.OwnerID != "" {
		if err := q.redisClient.SRem(ctx, ownerTasksKeyPrefix+task.OwnerID, taskID).Err(); err != nil {
			return fmt.Errorf("failed to remove task from owner tasks: %w", err)
		}
	}

	if err := q.redisClient.Del(ctx, taskKeyPrefix+taskID).Err(); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	// 已在处理中或已完成的任务无法从asynq删除
	if !task.Status.Done() {
		if err := q.inspector.DeleteTask(defaultQueueName, taskID); err != nil {
			q.logger.WithError(err).WithField("task_id", taskID).Warn("Failed to delete task from asynq queue")
		}
	}
	return nil
}

// UpdateTaskStatus 更新任务状态并发布通知
func (q *RedisQueue) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errMsg string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	now := time.Now()
	task.Status = status
	task.UpdatedAt = now

	if status == StatusProcessing {
		task.Attempts++
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
	}
	if status.Done() {
		task.CompletedAt = &now
	}

	if result != nil {
		resultBytes, err := MarshalPayload(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		task.Result = resultBytes
	}
	task.Error = errMsg

	if err := q.saveTask(ctx, task); err != nil {
		return err
	}
	return q.NotifyTaskUpdate(ctx, taskID)
}

// NotifyTaskUpdate 通知任务状态更新
func (q *RedisQueue) NotifyTaskUpdate(ctx context.Context, taskID string) error {
	return q.redisClient.Publish(ctx, taskStatusChannel+taskID, "updated").Err()
}

// Close 关闭队列连接
func (q *RedisQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	if err := q.inspector.Close(); err != nil {
		return err
	}
	return q.redisClient.Close()
}

// saveTask 保存任务数据并加入用户任务集合
func (q *RedisQueue) saveTask(ctx context.Context, task *Task) error {
	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.redisClient.Set(ctx, taskKeyPrefix+task.ID, taskData, defaultTaskExpiry).Err(); err != nil {
		return fmt.Errorf("failed to save task data: %w", err)
	}

	if task.OwnerID != "" {
		ownerKey := ownerTasksKeyPrefix + task.OwnerID
		if err := q.redisClient.SAdd(ctx, ownerKey, task.ID).Err(); err != nil {
			return fmt.Errorf("failed to add task to owner tasks: %w", err)
		}
		q.redisClient.Expire(ctx, ownerKey, defaultTaskExpiry)
	}
	return nil
}

// RedisWorker 基于asynq服务器的工作者
type RedisWorker struct {
	server   *asynq.Server
	queue    *RedisQueue
	handlers map[TaskType]Handler
	logger   *logrus.Logger
}

// NewRedisWorker 创建Redis工作者
func NewRedisWorker(queue *RedisQueue, cfg *Config) *RedisWorker {
	if cfg == nil {
		cfg = queue.cfg
	}

	server := asynq.NewServer(redisClientOpt(cfg), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      cfg.Queues,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return cfg.RetryDelay
		},
		Logger: queue.logger,
	})

	return &RedisWorker{
		server:   server,
		queue:    queue,
		handlers: make(map[TaskType]Handler),
		logger:   queue.logger,
	}
}

// RegisterHandler 注册任务处理器
func (w *RedisWorker) RegisterHandler(taskType TaskType, handler Handler) {
	w.handlers[taskType] = handler
}

// Start 启动工作者
func (w *RedisWorker) Start() error {
	mux := asynq.NewServeMux()
	for taskType := range w.handlers {
		mux.HandleFunc(string(taskType), w.process)
		w.logger.WithField("task_type", taskType).Info("Registered handler for task type")
	}
	return w.server.Start(mux)
}

// Stop 停止工作者
func (w *RedisWorker) Stop() {
	w.server.Shutdown()
}

// process 执行一次asynq投递
// 失败且还有重试次数时保持processing状态，最后一次失败才标记为failed
func (w *RedisWorker) process(ctx context.Context, t *asynq.Task) error {
	taskID := string(t.Payload())
	log := w.logger.WithFields(logrus.Fields{"task_id": taskID, "task_type": t.Type()})

	handler, ok := w.handlers[TaskType(t.Type())]
	if !ok {
		return fmt.Errorf("no handler registered for %s: %w", t.Type(), asynq.SkipRetry)
	}

	task, err := w.queue.GetTask(ctx, taskID)
	if err != nil {
		log.WithError(err).Error("Failed to get task info")
		if errors.Is(err, ErrTaskNotFound) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	if err := w.queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, ""); err != nil {
		log.WithError(err).Error("Failed to update task status to processing")
	}

	result, err := handler.ProcessTask(ctx, task)
	if err != nil {
		final := errors.Is(err, ErrInvalidPayload) || isLastAttempt(ctx)
		log.WithError(err).WithField("final", final).Warn("Task processing failed")
		if final {
			if updateErr := w.queue.UpdateTaskStatus(ctx, taskID, StatusFailed, nil, err.Error()); updateErr != nil {
				log.WithError(updateErr).Error("Failed to update task status after failure")
			}
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	if err := w.queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, ""); err != nil {
		log.WithError(err).Error("Failed to update task status after completion")
	}
	log.Info("Task completed")
	return nil
}

// isLastAttempt 当前是否为最后一次尝试，不在asynq上下文中时视为最后一次
func isLastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

func init() {
	RegisterQueueFactory("redis", func(cfg *Config) (Queue, error) {
		q, err := NewRedisQueue(cfg)
		if err != nil {
			return nil, err
		}
		return q, nil
	})
}
