package share

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hwaldner/cloudcanvas/pkg/cache"
)

// keyPrefix namespaces share keys inside a shared Redis instance.
const keyPrefix = "cloudcanvas:share:"

// RedisConfig configures a Redis share store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore is a Redis-backed share store for multi-instance deployments.
// Expiry is delegated to Redis TTLs, so Cleanup is a no-op.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Share, error) {
	var data []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		b, err := s.client.Get(ctx, keyPrefix+id).Bytes()
		if stderrors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return cache.Retryable(err)
		}
		data = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var sh Share
	if err := json.Unmarshal(data, &sh); err != nil {
		return nil, fmt.Errorf("parse share: %w", err)
	}
	if sh.IsExpired() {
		return nil, nil
	}
	return &sh, nil
}

func (s *RedisStore) Set(ctx context.Context, sh *Share) error {
	data, err := json.Marshal(sh)
	if err != nil {
		return fmt.Errorf("marshal share: %w", err)
	}

	var ttl time.Duration
	if !sh.ExpiresAt.IsZero() {
		ttl = time.Until(sh.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		if err := s.client.Set(ctx, keyPrefix+sh.ID, data, ttl).Err(); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Cleanup is a no-op: Redis expires keys natively.
func (s *RedisStore) Cleanup(ctx context.Context) error {
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close(ctx context.Context) error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
