package extraction

import (
	"github.com/sirupsen/logrus"
)

// options 各提取器共用的可选项
type options struct {
	cache        Cache
	poll         PollPolicy
	logger       *logrus.Logger
	languageCode string
}

// Option 提取器配置选项
type Option func(*options)

// WithCache 设置提取结果缓存
func WithCache(c Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithPollPolicy 设置异步任务轮询策略
func WithPollPolicy(p PollPolicy) Option {
	return func(o *options) {
		o.poll = p
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLanguageCode 设置转写语言
func WithLanguageCode(code string) Option {
	return func(o *options) {
		o.languageCode = code
	}
}

func buildOptions(opts []Option) options {
	o := options{
		poll:         DefaultPollPolicy(),
		logger:       logrus.StandardLogger(),
		languageCode: "en-US",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
