package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio-analytics-api/internal/config"
)

// ErrNotFound is returned when a key is not found in cache
var ErrNotFound = errors.New("key not found in cache")

// RedisClient represents Redis cache client
type RedisClient struct {
	client *redis.Client
	config config.CacheConfig
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg config.CacheConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConnections,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: rdb,
		config: cfg,
	}, nil
}

// NewRedisClientWithClient wraps an existing redis client, useful in tests
func NewRedisClientWithClient(client *redis.Client, cfg config.CacheConfig) *RedisClient {
	return &RedisClient{
		client: client,
		config: cfg,
	}
}

// Set stores a value with TTL
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.client.Set(ctx, key, data, ttl).Err()
}

// Get retrieves a value and unmarshals it
func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

// Delete removes keys
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// Ping checks the cache connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// AnalysisTTL returns the configured TTL for cached analysis snapshots
func (r *RedisClient) AnalysisTTL() time.Duration {
	return r.config.AnalysisTTL
}

// AnalysisKey builds the cache key for a portfolio's latest analysis
func AnalysisKey(portfolioID string) string {
	return fmt.Sprintf("analysis:latest:%s", portfolioID)
}
