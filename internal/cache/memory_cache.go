package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache 基于go-cache的进程内缓存
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache(config Config) (Cache, error) {
	defaultExpiration := config.DefaultTTL
	if defaultExpiration <= 0 {
		defaultExpiration = time.Hour
	}

	cleanupInterval := config.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	return &MemoryCache{
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}, nil
}

// Get 获取缓存内容
func (m *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, found := m.cache.Get(key)
	if !found {
		return "", false, nil
	}
	str, ok := value.(string)
	if !ok {
		return "", false, nil
	}
	return str, true, nil
}

// Set 设置缓存内容
func (m *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(key, value, ttl)
	return nil
}

// Delete 删除缓存项
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Clear 清空所有缓存
func (m *MemoryCache) Clear(_ context.Context) error {
	m.cache.Flush()
	return nil
}

// Len 返回当前缓存项数量
func (m *MemoryCache) Len() int {
	return m.cache.ItemCount()
}

func init() {
	RegisterCache("memory", NewMemoryCache)
}
