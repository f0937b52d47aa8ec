package llm

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// ResilientClient 为任意Client加上限流和指数退避重试
type ResilientClient struct {
	inner      Client
	limiter    *rate.Limiter // 为nil时不限流
	maxRetries uint64
	baseDelay  time.Duration
}

// NewResilientClient 包装客户端
func NewResilientClient(inner Client, cfg *Config) *ResilientClient {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	rc := &ResilientClient{
		inner:     inner,
		baseDelay: cfg.RetryDelay,
	}
	if cfg.MaxRetries > 0 {
		rc.maxRetries = uint64(cfg.MaxRetries)
	}
	if rc.baseDelay <= 0 {
		rc.baseDelay = 200 * time.Millisecond
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		rc.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return rc
}

// Name 返回被包装客户端的模型名称
func (c *ResilientClient) Name() string {
	return c.inner.Name()
}

// Generate 带重试的文本生成
func (c *ResilientClient) Generate(ctx context.Context, prompt string, options ...CallOption) (*Response, error) {
	return c.do(ctx, func(ctx context.Context) (*Response, error) {
		return c.inner.Generate(ctx, prompt, options...)
	})
}

// Chat 带重试的多轮对话
func (c *ResilientClient) Chat(ctx context.Context, messages []Message, options ...CallOption) (*Response, error) {
	return c.do(ctx, func(ctx context.Context) (*Response, error) {
		return c.inner.Chat(ctx, messages, options...)
	})
}

func (c *ResilientClient) do(ctx context.Context, call func(context.Context) (*Response, error)) (*Response, error) {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseDelay))

	var resp *Response
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return WrapError(err, ErrCodeTimeout)
			}
		}

		var callErr error
		resp, callErr = call(ctx)
		if callErr != nil {
			if IsRetryable(callErr) {
				return retry.RetryableError(callErr)
			}
			return callErr
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, ErrCodeServerError)
	}
	return resp, nil
}
