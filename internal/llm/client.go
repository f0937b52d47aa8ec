package llm

import (
	"context"
	"time"
)

// Client 大模型客户端接口
// 摘要流水线只用到Generate，聊天服务用到Chat
type Client interface {
	// Generate 根据单条提示词生成文本
	Generate(ctx context.Context, prompt string, options ...CallOption) (*Response, error)

	// Chat 进行多轮对话
	Chat(ctx context.Context, messages []Message, options ...CallOption) (*Response, error)

	// Name 返回模型名称
	Name() string
}

// Config 大模型客户端配置
// BaseURL和Model为空时由各提供商使用自己的默认值
type Config struct {
	APIKey      string        // API密钥
	BaseURL     string        // API端点
	Model       string        // 模型名称
	Timeout     time.Duration // 单次HTTP请求超时
	MaxRetries  int           // 可重试错误的最大重试次数
	RetryDelay  time.Duration // 首次重试的退避时间，之后指数增长
	MaxTokens   int           // 最大生成Token数
	Temperature float32       // 采样温度(0.0-2.0)
	TopP        float32       // 核采样概率阈值(0.0-1.0)
	RateLimit   float64       // 每秒最多请求数，0表示不限流
	Burst       int           // 限流桶容量
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Timeout:     60 * time.Second,
		MaxRetries:  3,
		RetryDelay:  200 * time.Millisecond,
		MaxTokens:   1024,
		Temperature: 0.3,
		TopP:        0.9,
		Burst:       1,
	}
}

// Option 客户端配置选项函数类型
type Option func(*Config)

// WithAPIKey 设置API密钥
func WithAPIKey(apiKey string) Option {
	return func(c *Config) {
		c.APIKey = apiKey
	}
}

// WithBaseURL 设置API端点
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel 设置模型名称
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithTimeout 设置请求超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxRetries 设置最大重试次数
func WithMaxRetries(retries int) Option {
	return func(c *Config) {
		c.MaxRetries = retries
	}
}

// WithRetryDelay 设置重试退避基准时间
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Config) {
		c.RetryDelay = delay
	}
}

// WithMaxTokens 设置最大生成Token数
func WithMaxTokens(tokens int) Option {
	return func(c *Config) {
		c.MaxTokens = tokens
	}
}

// WithTemperature 设置采样温度
func WithTemperature(temp float32) Option {
	return func(c *Config) {
		c.Temperature = temp
	}
}

// WithTopP 设置核采样概率阈值
func WithTopP(topP float32) Option {
	return func(c *Config) {
		c.TopP = topP
	}
}

// WithRateLimit 设置每秒请求上限和突发容量
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Config) {
		c.RateLimit = perSecond
		c.Burst = burst
	}
}

// NewConfig 创建一个新的配置并应用选项
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// CallOption 单次调用的选项
type CallOption func(*CallOptions)

// CallOptions 单次调用的选项集合，未设置的字段使用客户端配置
type CallOptions struct {
	MaxTokens   *int     // 最大生成Token数
	Temperature *float32 // 采样温度
	TopP        *float32 // 核采样概率阈值
}

// WithCallMaxTokens 设置本次调用的最大Token数
func WithCallMaxTokens(tokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = &tokens
	}
}

// WithCallTemperature 设置本次调用的采样温度
func WithCallTemperature(temp float32) CallOption {
	return func(o *CallOptions) {
		o.Temperature = &temp
	}
}

// WithCallTopP 设置本次调用的核采样概率阈值
func WithCallTopP(topP float32) CallOption {
	return func(o *CallOptions) {
		o.TopP = &topP
	}
}

// applyCallOptions 合并调用选项与客户端默认值
func applyCallOptions(cfg callDefaults, options []CallOption) CallOptions {
	opts := CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.MaxTokens == nil && cfg.maxTokens > 0 {
		v := cfg.maxTokens
		opts.MaxTokens = &v
	}
	if opts.Temperature == nil && cfg.temperature > 0 {
		v := cfg.temperature
		opts.Temperature = &v
	}
	if opts.TopP == nil && cfg.topP > 0 {
		v := cfg.topP
		opts.TopP = &v
	}
	return opts
}

// callDefaults 客户端级别的生成参数
type callDefaults struct {
	maxTokens   int
	temperature float32
	topP        float32
}

func defaultsFrom(cfg *Config) callDefaults {
	return callDefaults{
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}
}

// Factory 大模型客户端工厂函数类型
type Factory func(cfg *Config) (Client, error)

// 全局注册的大模型客户端工厂函数
var clientFactories = make(map[string]Factory)

// RegisterClient 注册大模型客户端工厂函数
func RegisterClient(name string, factory Factory) {
	clientFactories[name] = factory
}

// NewClient 根据提供商名称创建客户端
// 返回的客户端带有限流和重试
func NewClient(name string, opts ...Option) (Client, error) {
	factory, exists := clientFactories[name]
	if !exists {
		return nil, NewLLMError(
			ErrCodeInvalidRequest,
			"llm client type not registered: "+name)
	}

	cfg := NewConfig(opts...)
	client, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	return NewResilientClient(client, cfg), nil
}
