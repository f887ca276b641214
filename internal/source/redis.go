package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-viewer/internal/domain"
)

// Redis reads the game document stored under a single key.
type Redis struct {
	rdb *redis.Client
	key string
}

func NewRedis(rdb *redis.Client, key string) *Redis {
	if strings.TrimSpace(key) == "" {
		key = "viewer:game"
	}
	return &Redis{rdb: rdb, key: key}
}

// NewRedisFromURL connects and pings once so a wrong URL fails at startup.
func NewRedisFromURL(ctx context.Context, rawURL, key string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb, key), nil
}

func (r *Redis) Name() string { return "redis:" + r.key }

func (r *Redis) Fetch(ctx context.Context) (domain.Game, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fetchErr("redis key %s not set", r.key)
	}
	if err != nil {
		return nil, fetchErr("redis get %s: %v", r.key, err)
	}
	return decode(raw)
}

// Publish stores g under the key. Used by producers and tests.
func (r *Redis) Publish(ctx context.Context, g domain.Game) error {
	raw, err := domain.EncodeGame(g)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, raw, 0).Err()
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
