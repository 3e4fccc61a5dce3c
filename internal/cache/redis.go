// Package cache wraps Redis for catalog caching, refresh locks and the
// refresh job queue.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Prefix namespaces every key written by this package.
const Prefix = "iptvhub:"

// Redis is a thin handle over a go-redis client.
type Redis struct {
	client *redis.Client
}

// New parses a Redis URL such as "redis://host:6379/0". No connection is
// made until the first command; call Ping to check reachability.
func New(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// IsMiss reports whether err means the key does not exist.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Key joins parts under Prefix and namespace, hashing them so credentials
// never appear in key names.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return Prefix + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get fetches key and decodes its JSON value. A missing key returns an
// error for which IsMiss is true.
func Get[T any](ctx context.Context, r *Redis, key string) (T, error) {
	var zero T
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return v, nil
}

// Set stores v as JSON under key. A zero ttl keeps the key forever.
func Set(ctx context.Context, r *Redis, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Del removes exact keys.
func Del(ctx context.Context, r *Redis, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// DelPattern removes every key matching a glob, walking with SCAN.
func DelPattern(ctx context.Context, r *Redis, pattern string) error {
	if !strings.HasPrefix(pattern, Prefix) {
		pattern = Prefix + pattern
	}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache del %s: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
