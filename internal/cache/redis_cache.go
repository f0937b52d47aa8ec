package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache 基于Redis的共享缓存
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisCache 创建Redis缓存并检查连接
func NewRedisCache(config Config) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, config), nil
}

// NewRedisCacheWithClient 使用已有客户端创建Redis缓存
func NewRedisCacheWithClient(client *redis.Client, config Config) *RedisCache {
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{
		client:     client,
		prefix:     config.KeyPrefix,
		defaultTTL: ttl,
	}
}

func (r *RedisCache) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + k
}

// Get 获取缓存内容
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set 设置缓存内容
func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

// Delete 删除缓存项
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear 清空缓存
// 设置了前缀时只删除该前缀下的键，否则清空整个数据库
func (r *RedisCache) Clear(ctx context.Context) error {
	if r.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close 关闭Redis连接
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func init() {
	RegisterCache("redis", NewRedisCache)
}
