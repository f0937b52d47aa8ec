package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// PollPolicy 异步任务的轮询策略: 固定间隔，最多MaxAttempts次
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollPolicy 每5秒一次，最多60次
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: 5 * time.Second, MaxAttempts: 60}
}

// errPending 任务仍在运行
var errPending = errors.New("job still running")

// Poll 反复调用check直到任务完成
// check返回done=false表示继续等待，返回错误时立即停止
// 次数用尽时返回ErrJobTimeout
func (p PollPolicy) Poll(ctx context.Context, check func(ctx context.Context) (bool, error)) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if !done {
			return retry.RetryableError(errPending)
		}
		return nil
	})

	if errors.Is(err, errPending) {
		return ErrJobTimeout
	}
	return err
}
