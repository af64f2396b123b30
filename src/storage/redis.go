package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onboarding_bot/src/model"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const joinPrefix = "onboarded:"

// RedisLedger keeps join records in redis so they survive restarts
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

var _ JoinLedger = (*RedisLedger)(nil)

// NewRedisLedger connects to cfg.URL and verifies the connection
func NewRedisLedger(ctx context.Context, cfg model.RedisConfig) (*RedisLedger, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis ledger")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLedger{client: client, ttl: cfg.LedgerTTL}, nil
}

// key generates a Redis key for the given user ID
func (r *RedisLedger) key(userID string) string {
	return joinPrefix + userID
}

func (r *RedisLedger) MarkJoined(ctx context.Context, userID string, at time.Time) (bool, error) {
	data, err := sonic.Marshal(JoinRecord{UserID: userID, JoinedAt: at})
	if err != nil {
		return false, fmt.Errorf("failed to marshal join record: %w", err)
	}

	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	created, err := r.client.SetNX(ctx, r.key(userID), data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record join: %w", err)
	}
	return created, nil
}

func (r *RedisLedger) Lookup(ctx context.Context, userID string) (*JoinRecord, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get join record: %w", err)
	}

	var rec JoinRecord
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal join record: %w", err)
	}
	return &rec, nil
}

func (r *RedisLedger) Forget(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete join record: %w", err)
	}
	return nil
}

// Ping tests Redis connection
func (r *RedisLedger) Ping(ctx context.Context) error {
	_, err := r.client.Ping(ctx).Result()
	return err
}

// Close closes the Redis connection
func (r *RedisLedger) Close() error {
	return r.client.Close()
}

// NewLedger picks redis when a URL is configured and memory otherwise
func NewLedger(ctx context.Context, cfg model.RedisConfig) (JoinLedger, error) {
	if cfg.URL == "" {
		return NewMemoryLedger(cfg.LedgerTTL), nil
	}
	return NewRedisLedger(ctx, cfg)
}
