package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis server, shared between replicas.
type Redis struct {
	client    redis.UniversalClient
	namespace string
	logger    *slog.Logger
}

// NewRedis wraps an existing client. Keys are stored as "namespace:key".
func NewRedis(client redis.UniversalClient, namespace string, logger *slog.Logger) *Redis {
	return &Redis{client: client, namespace: namespace, logger: logger}
}

// DialRedis opens a single-node client.
func DialRedis(addr, password string) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func (c *Redis) key(k string) string {
	return c.namespace + ":" + k
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Redis cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (c *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Ping checks connectivity.
// Stats reports the client's connection pool counters.
func (c *Redis) Stats() map[string]interface{} {
	ps := c.client.PoolStats()
	return map[string]interface{}{
		"backend":     "redis",
		"namespace":   c.namespace,
		"hits":        ps.Hits,
		"misses":      ps.Misses,
		"timeouts":    ps.Timeouts,
		"total_conns": ps.TotalConns,
		"idle_conns":  ps.IdleConns,
	}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
