package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed Store implementation. Records are persisted
// as JSON under their query keys.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store from a standard URL
// (e.g. redis://localhost:6379/0). The connection is verified with a
// 2 second ping; failure is an initialization error.
func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis url: %w", err)
	}
	cli := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("cache: redis unreachable: %w", err)
	}

	return &RedisStore{client: cli}, nil
}

// Get retrieves a record. Returns (Record{}, false) on miss or when the
// stored bytes do not decode (treated as a miss and evicted).
func (s *RedisStore) Get(ctx context.Context, key string) (Record, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return Record{}, false
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		_ = s.client.Del(ctx, key).Err()
		return Record{}, false
	}
	return rec, true
}

// Set stores a record with the given TTL. TTL=0 means no caching. Writes
// older than the stored record are dropped.
//
// The read-compare-write is not atomic; all writers funnel through the
// single orchestrator loop, which serializes them.
func (s *RedisStore) Set(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if existing, ok := s.Get(ctx, key); ok && existing.ResolvedAt.After(rec.ResolvedAt) {
		return nil
	}

	data, err := rec.Encode()
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Delete removes a record. Idempotent - no error on miss.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

// Clear removes every key under KeyPrefix. Other keys in the database are
// left alone.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, KeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("cache: redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping reports whether the Redis backend is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store and Pinger
var (
	_ Store  = (*RedisStore)(nil)
	_ Pinger = (*RedisStore)(nil)
)
