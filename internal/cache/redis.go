// Package cache keeps the latest advice per device in Redis
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/SpherenexLabs/npk/internal/models"
)

const (
	// LatestKeyPrefix prefixes the latest result per device
	LatestKeyPrefix = "advice:latest:"
	// RecentKeyPrefix prefixes the recent results list per device
	RecentKeyPrefix = "advice:recent:"
	// ReadingsTotalKey counts every ingested reading
	ReadingsTotalKey = "readings:total"
	// WarningsTotalKey counts every data quality warning
	WarningsTotalKey = "warnings:total"
	// LatestTTL is how long a device's latest result survives without updates
	LatestTTL = 1 * time.Hour
	// RecentLimit bounds the recent results list
	RecentLimit = 100
)

// RedisCache stores ingest results in Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Name identifies the cache as a result sink
func (r *RedisCache) Name() string {
	return "redis"
}

// Publish stores the result as the device's latest, pushes it onto the
// recent list and bumps the counters in one pipeline
func (r *RedisCache) Publish(ctx context.Context, result *models.IngestResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, LatestKey(result.DeviceID), data, LatestTTL)
	pipe.LPush(ctx, RecentKey(result.DeviceID), data)
	pipe.LTrim(ctx, RecentKey(result.DeviceID), 0, RecentLimit-1)
	pipe.Incr(ctx, ReadingsTotalKey)
	if len(result.Warnings) > 0 {
		pipe.IncrBy(ctx, WarningsTotalKey, int64(len(result.Warnings)))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// GetLatest returns the device's latest cached result. found is false when
// nothing is cached or the entry expired.
func (r *RedisCache) GetLatest(ctx context.Context, deviceID string) (result *models.IngestResult, found bool, err error) {
	data, err := r.client.Get(ctx, LatestKey(deviceID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get latest result: %w", err)
	}

	result = &models.IngestResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal latest result: %w", err)
	}
	return result, true, nil
}

// GetRecent returns up to count recent results, newest first
func (r *RedisCache) GetRecent(ctx context.Context, deviceID string, count int64) ([]models.IngestResult, error) {
	data, err := r.client.LRange(ctx, RecentKey(deviceID), 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent results: %w", err)
	}

	results := make([]models.IngestResult, 0, len(data))
	for _, d := range data {
		var res models.IngestResult
		if err := json.Unmarshal([]byte(d), &res); err != nil {
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// GetCounter returns a counter value, 0 when unset
func (r *RedisCache) GetCounter(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Ping checks the connection
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// LatestKey returns the latest-result key for a device
func LatestKey(deviceID string) string {
	return LatestKeyPrefix + deviceID
}

// RecentKey returns the recent-results key for a device
func RecentKey(deviceID string) string {
	return RecentKeyPrefix + deviceID
}
