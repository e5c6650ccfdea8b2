package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "mailprefs:session:"

// RedisSessionStore keeps sessions in Redis with a TTL instead of the
// sessions table. Used when REDIS_URL is configured.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

// OpenRedis parses a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisSessionStore) Create(ctx context.Context, userID string) (string, error) {
	id := newToken()
	if err := s.rdb.Set(ctx, redisSessionPrefix+id, userID, SessionTTL).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisSessionStore) GetUserID(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.rdb.Get(ctx, redisSessionPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return userID, err
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, redisSessionPrefix+sessionID).Err()
}

// DeleteExpired is a no-op; Redis expires keys on its own.
func (s *RedisSessionStore) DeleteExpired(context.Context) error {
	return nil
}
