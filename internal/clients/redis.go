package clients

import (
	"context"
	"time"

	"liquidation-export/pkg/cache/redis"
)

const DefaultRedisPrefix = "liquidation_export_"

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration

	// Prefix namespaces every key: record snapshots, export statuses and
	// the export id set.
	Prefix string
}

// RedisClient is the shared store for record snapshots and export
// statuses. Get reports missing keys as redis.ErrCacheMiss.
type RedisClient struct {
	raw    *redis.Client
	prefix string
}

func NewRedisClient(cfg RedisConfig) (*RedisClient, error) {
	rdb, err := redis.NewRedisConnection(redis.ConnectionInfo{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &RedisClient{
		raw:    rdb,
		prefix: keyPrefix(cfg.Prefix),
	}, nil
}

func keyPrefix(p string) string {
	if p == "" {
		return DefaultRedisPrefix
	}
	return p
}

func (c *RedisClient) Close() {
	if c.raw == nil {
		return
	}
	redis.Close(c.raw)
}

func (c *RedisClient) key(k string) string {
	return c.prefix + k
}

// Set stores value under key; a zero ttl keeps it until deleted.
func (c *RedisClient) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.raw.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.raw.Get(ctx, c.key(key)).Result()
	return v, redis.TranslateError(err)
}

func (c *RedisClient) SAdd(ctx context.Context, key string, members ...any) error {
	return c.raw.SAdd(ctx, c.key(key), members...).Err()
}

func (c *RedisClient) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.raw.SMembers(ctx, c.key(key)).Result()
}
