package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore 是限流所依赖的共享计数存储。
// Increment 必须是原子自增，多个并发请求下计数仍然正确。
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Get(ctx context.Context, key string) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RedisCounterStore 基于 Redis INCR/EXPIRE 实现 CounterStore。
type RedisCounterStore struct {
	client redis.UniversalClient
}

// NewRedisCounterStore 构造 Redis 计数存储。
func NewRedisCounterStore(client redis.UniversalClient) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %q: %w", key, err)
	}
	return count, nil
}

func (s *RedisCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("expire %q: %w", key, err)
	}
	return nil
}

func (s *RedisCounterStore) Get(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %q: %w", key, err)
	}
	return count, nil
}

func (s *RedisCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ttl %q: %w", key, err)
	}
	return ttl, nil
}

// Class 描述一个限流端点类别：固定窗口内允许的最大请求数。
type Class struct {
	Name   string
	Max    int
	Window time.Duration
}

// Decision 是一次限流判定的结果。
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter 以 (类别, 主体) 为键做固定窗口限流。
// 计数存储不可达时采取放行策略（fail-open）：
// 后端故障不应让正常请求被悄悄丢弃，故障本身会记录日志。
type Limiter struct {
	store  CounterStore
	logger *slog.Logger
}

// NewLimiter 构造 Limiter。
func NewLimiter(store CounterStore, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{store: store, logger: logger}
}

// Allow 自增计数并判断是否放行。窗口内的第一次自增负责设置 TTL，
// TTL 到期后计数自然归零、窗口重新开始。
func (l *Limiter) Allow(ctx context.Context, class Class, subject string) Decision {
	key := "rate:" + class.Name + ":" + subject

	count, err := l.store.Increment(ctx, key)
	if err != nil {
		l.logger.Warn("rate counter unavailable, failing open",
			slog.String("class", class.Name),
			slog.Any("error", err),
		)
		return Decision{Allowed: true, Remaining: class.Max}
	}

	if count == 1 {
		if err := l.store.Expire(ctx, key, class.Window); err != nil {
			l.logger.Warn("rate counter expire failed",
				slog.String("class", class.Name),
				slog.Any("error", err),
			)
		}
	}

	if count > int64(class.Max) {
		retryAfter := class.Window
		if ttl, err := l.store.TTL(ctx, key); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}
	}

	remaining := class.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining}
}
