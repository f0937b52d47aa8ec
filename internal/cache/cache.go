package cache

import (
	"context"
	"strings"
	"time"
)

// Cache 带TTL的键值缓存接口
// 摘要流水线只依赖Get/Set，Delete/Clear用于运维和测试
type Cache interface {
	// Get 获取缓存值，键不存在时found为false且err为nil
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set 写入缓存值，ttl为0时使用默认过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Delete 删除缓存项
	Delete(ctx context.Context, key string) error
	// Clear 清空缓存
	Clear(ctx context.Context) error
}

// Factory 缓存工厂函数类型
type Factory func(config Config) (Cache, error)

// 注册的缓存实现
var registry = make(map[string]Factory)

// RegisterCache 注册缓存实现
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache 根据配置创建缓存实例，未知类型回退到内存缓存
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config 缓存配置
type Config struct {
	Type            string        // 缓存类型: "memory" 或 "redis"
	RedisAddr       string        // Redis连接地址
	RedisPassword   string        // Redis密码
	RedisDB         int           // Redis数据库编号
	KeyPrefix       string        // 键前缀，多个服务共用Redis时区分命名空间
	DefaultTTL      time.Duration // 默认过期时间
	CleanupInterval time.Duration // 内存缓存清理间隔
}

// DefaultConfig 返回默认缓存配置
// 摘要结果默认保留1小时
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// GenerateCacheKey 生成以冒号分隔的缓存键
func GenerateCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}
