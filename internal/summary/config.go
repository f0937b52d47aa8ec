package summary

import "time"

// Config 摘要流水线配置
type Config struct {
	MaxChunkTokens        int           // 单个分块的token预算
	CharsPerToken         int           // 估算token时每个token对应的字符数
	SingleCallTokens      int           // 不超过该估算值时直接单次调用
	CacheTTL              time.Duration // 文档和分块缓存的过期时间
	Concurrency           int           // 映射步骤的最大并发数
	CallTimeout           time.Duration // 单次远程调用超时
	ReduceBudgetWords     int           // 合并步骤输入的总词数预算
	DegradeOnChunkFailure bool          // 分块失败时使用占位摘要继续，而不是终止请求
}

// DefaultConfig 返回默认配置
// token预算按百万上下文模型的85%计算
func DefaultConfig() Config {
	return Config{
		MaxChunkTokens:    850000,
		CharsPerToken:     4,
		SingleCallTokens:  850000,
		CacheTTL:          time.Hour,
		Concurrency:       4,
		CallTimeout:       2 * time.Minute,
		ReduceBudgetWords: 1500,
	}
}

// MaxChunkChars 分块的最大字符数
func (c Config) MaxChunkChars() int {
	return c.MaxChunkTokens * c.CharsPerToken
}

// withDefaults 用默认值填充未设置的字段
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxChunkTokens <= 0 {
		c.MaxChunkTokens = def.MaxChunkTokens
	}
	if c.CharsPerToken <= 0 {
		c.CharsPerToken = def.CharsPerToken
	}
	if c.SingleCallTokens <= 0 {
		c.SingleCallTokens = def.SingleCallTokens
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.ReduceBudgetWords <= 0 {
		c.ReduceBudgetWords = def.ReduceBudgetWords
	}
	return c
}
