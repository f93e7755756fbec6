package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

// RedisKV is a Redis-backed store. Every write is published on a channel so other tabs
// sharing the same prefix observe it through [RedisKV.Watch].
type RedisKV struct {
	redis   redis.UniversalClient
	prefix  string
	origin  string
	channel string
}

// NewRedisKV creates a store namespaced under prefix. origin identifies the writing tab.
func NewRedisKV(client redis.UniversalClient, prefix, origin string) *RedisKV {
	if origin == "" {
		origin = NewTabID()
	}
	return &RedisKV{
		redis:   client,
		prefix:  prefix,
		origin:  origin,
		channel: prefix + ":changes",
	}
}

// Origin returns the tab identifier stamped on published changes.
func (s *RedisKV) Origin() string {
	return s.origin
}

func (s *RedisKV) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, true, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.publish(ctx, Change{Key: key, Origin: s.origin})
	return nil
}

func (s *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Del(ctx, s.key(k))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			s.publish(ctx, Change{Key: keys[i], Origin: s.origin, Deleted: true})
		}
	}
	return nil
}

// Clear deletes every key under the prefix. It is an O(n) SCAN and only runs on logout.
func (s *RedisKV) Clear(ctx context.Context) error {
	var cursor uint64
	pattern := s.prefix + ":*"
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(keys) > 0 {
			if err := s.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *RedisKV) Watch(ctx context.Context) (<-chan Change, error) {
	sub := s.redis.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make(chan Change, watchBuffer)
	msgs := sub.Channel()

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					continue
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()

	return out, nil
}

// publish is best-effort: a lost notification only delays another tab's refresh until its
// fallback poll.
func (s *RedisKV) publish(ctx context.Context, change Change) {
	data, err := json.Marshal(change)
	if err != nil {
		return
	}
	_ = s.redis.Publish(ctx, s.channel, data).Err()
}
