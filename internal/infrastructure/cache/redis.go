package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/lecture-assistant/pkg/config"
)

const progressKeyPrefix = "lecture:progress:"

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisProgressCache stores transcription progress under lecture:progress:<id>
type RedisProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProgressCache(client *redis.Client, ttl time.Duration) *RedisProgressCache {
	if ttl <= 0 {
		ttl = defaultProgressTTL
	}
	return &RedisProgressCache{client: client, ttl: ttl}
}

func (r *RedisProgressCache) SetProgress(ctx context.Context, lectureID string, progress float64) error {
	value := strconv.FormatFloat(progress, 'f', 3, 64)
	if err := r.client.Set(ctx, progressKeyPrefix+lectureID, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("error storing progress: %w", err)
	}
	return nil
}

func (r *RedisProgressCache) GetProgress(ctx context.Context, lectureID string) (float64, bool, error) {
	value, err := r.client.Get(ctx, progressKeyPrefix+lectureID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("error reading progress: %w", err)
	}
	p, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt progress value %q: %w", value, err)
	}
	return p, true, nil
}

func (r *RedisProgressCache) ClearProgress(ctx context.Context, lectureID string) error {
	return r.client.Del(ctx, progressKeyPrefix+lectureID).Err()
}
