package unread

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const lastSeenKeyFormat = "preference:%s:lastSeenNotification"

// RedisStore persists the last-seen marker per subscriber in Redis.
type RedisStore struct {
	rdb   *redis.Client
	owner string
}

func NewRedisStore(rdb *redis.Client, owner string) *RedisStore {
	return &RedisStore{rdb: rdb, owner: owner}
}

func (s *RedisStore) key() string {
	return fmt.Sprintf(lastSeenKeyFormat, s.owner)
}

func (s *RedisStore) LastSeenNotification(ctx context.Context) (int64, error) {
	val, err := s.rdb.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get last seen marker: %w", err)
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse last seen marker %q: %w", val, err)
	}
	return millis, nil
}

func (s *RedisStore) SetLastSeenNotification(ctx context.Context, millis int64) error {
	if err := s.rdb.Set(ctx, s.key(), strconv.FormatInt(millis, 10), 0).Err(); err != nil {
		return fmt.Errorf("persist last seen marker: %w", err)
	}
	return nil
}
