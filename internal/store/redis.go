package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "subcache:"

// RedisCacheStore is a SubtitleCacheStore backed by Redis. Rows are stored
// as JSON values under "subcache:<generation>:<externalVideoID>".
type RedisCacheStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCacheStore connects to Redis and creates the store
func NewRedisCacheStore(ctx context.Context, addr string, logger *zap.Logger) (*RedisCacheStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCacheStore{client: client, logger: logger}, nil
}

// Close closes the Redis connection
func (s *RedisCacheStore) Close() error {
	return s.client.Close()
}

func redisKey(generation, externalVideoID string) string {
	return cacheKeyPrefix + generation + ":" + externalVideoID
}

// Save stores a subtitle cache row
func (s *RedisCacheStore) Save(ctx context.Context, row *SubtitleCacheRow) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode cache row: %w", err)
	}

	key := redisKey(row.Generation, row.ExternalVideoID)
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store cache row: %w", err)
	}
	return nil
}

// Delete removes the cache row for a video within a generation
func (s *RedisCacheStore) Delete(ctx context.Context, generation, externalVideoID string) error {
	if err := s.client.Del(ctx, redisKey(generation, externalVideoID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache row: %w", err)
	}
	return nil
}

// PurgeOtherGenerations removes every cache row that does not belong to the
// given generation
func (s *RedisCacheStore) PurgeOtherGenerations(ctx context.Context, generation string) error {
	keep := cacheKeyPrefix + generation + ":"

	iter := s.client.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()
	var stale []string
	for iter.Next(ctx) {
		key := iter.Val()
		if !strings.HasPrefix(key, keep) {
			stale = append(stale, key)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(stale) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, stale...).Err(); err != nil {
		return fmt.Errorf("failed to purge stale cache rows: %w", err)
	}
	s.logger.Debug("purged stale subtitle cache rows",
		zap.String("generation", generation),
		zap.Int("count", len(stale)))
	return nil
}
