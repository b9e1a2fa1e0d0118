package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCommands 是 Store 依赖的最小 Redis 命令集，便于测试替换。
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store 是基于 Redis 的响应缓存，值以 JSON 存储并依赖 TTL 过期。
// 未命中是正常结果而不是错误；后端故障以 error 返回，由调用方降级为未命中。
type Store struct {
	client redisCommands
}

// NewStore 构造响应缓存。
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func newStoreWithCommands(client redisCommands) *Store {
	return &Store{client: client}
}

// Get 按键读取并解码到 dest。返回值 found 表示是否命中。
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %q: %w", key, err)
	}
	return true, nil
}

// Set 序列化 value 并写入，ttl 到期后自动失效。
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Delete 删除指定键，键不存在不视为错误。
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}
