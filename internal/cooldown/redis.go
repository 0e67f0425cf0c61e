package cooldown

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "mudcore:cd:"

// RedisStore keeps cooldowns as expiring Redis keys so they survive restarts
// and are shared between processes.
// Key pattern: {prefix}{actor}:{key}
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) actorPrefix(actorID string) string {
	return s.prefix + actorID + ":"
}

func (s *RedisStore) key(actorID, key string) string {
	return s.actorPrefix(actorID) + key
}

func (s *RedisStore) Remaining(ctx context.Context, actorID, key string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, s.key(actorID, key)).Result()
	if err != nil {
		return 0, fmt.Errorf("reading cooldown %s/%s: %w", actorID, key, err)
	}
	// -2: no key, -1: no expiry.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *RedisStore) Set(ctx context.Context, actorID, key string, d time.Duration) error {
	k := s.key(actorID, key)
	if d <= 0 {
		if err := s.client.Del(ctx, k).Err(); err != nil {
			return fmt.Errorf("clearing cooldown %s/%s: %w", actorID, key, err)
		}
		return nil
	}
	if err := s.client.Set(ctx, k, time.Now().Add(d).UnixMilli(), d).Err(); err != nil {
		return fmt.Errorf("setting cooldown %s/%s: %w", actorID, key, err)
	}
	return nil
}

func (s *RedisStore) actorKeys(ctx context.Context, actorID string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.actorPrefix(actorID)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning cooldowns of %s: %w", actorID, err)
	}
	return keys, nil
}

func (s *RedisStore) Active(ctx context.Context, actorID string) (map[string]time.Duration, error) {
	keys, err := s.actorKeys(ctx, actorID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]time.Duration, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.DurationCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.PTTL(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading cooldowns of %s: %w", actorID, err)
	}

	prefix := s.actorPrefix(actorID)
	for i, cmd := range cmds {
		if ttl := cmd.Val(); ttl > 0 {
			out[strings.TrimPrefix(keys[i], prefix)] = ttl
		}
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, actorID string) error {
	keys, err := s.actorKeys(ctx, actorID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clearing cooldowns of %s: %w", actorID, err)
	}
	return nil
}
