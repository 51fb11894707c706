package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
)

const keyPrefix = "portflow:container:"

// RedisCache shares container snapshots between service replicas. Redis
// failures are logged and treated as misses; the database stays authoritative.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func key(id string) string {
	return keyPrefix + id
}

func (c *RedisCache) Get(ctx context.Context, id string) (*clearance.Container, bool) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheRequestsTotal.WithLabelValues(resultMiss).Inc()
			return nil, false
		}
		metrics.CacheRequestsTotal.WithLabelValues(resultError).Inc()
		c.logger.Warn("redis get failed", zap.String("container_id", id), zap.Error(err))
		return nil, false
	}

	var container clearance.Container
	if err := json.Unmarshal(raw, &container); err != nil {
		metrics.CacheRequestsTotal.WithLabelValues(resultError).Inc()
		c.logger.Warn("corrupt cache entry", zap.String("container_id", id), zap.Error(err))
		c.Delete(ctx, id)
		return nil, false
	}
	container.MarkCommitted()
	metrics.CacheRequestsTotal.WithLabelValues(resultHit).Inc()
	return &container, true
}

var errStaleEntry = errors.New("cached entry is newer")

// Set stores the container unless the cached copy has a higher version. A
// concurrent write to the same key drops the entry so the next read goes to
// the database.
func (c *RedisCache) Set(ctx context.Context, container *clearance.Container) {
	raw, err := json.Marshal(container)
	if err != nil {
		c.logger.Warn("failed to encode container", zap.String("container_id", container.ContainerID), zap.Error(err))
		return
	}

	k := key(container.ContainerID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var cached clearance.Container
			if json.Unmarshal(current, &cached) == nil && cached.Version() > container.Version() {
				return errStaleEntry
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, raw, c.ttl)
			return nil
		})
		return err
	}, k)

	switch {
	case err == nil:
	case errors.Is(err, errStaleEntry):
		c.logger.Debug("stale cache set dropped",
			zap.String("container_id", container.ContainerID),
			zap.Int("version", container.Version()))
	case errors.Is(err, redis.TxFailedErr):
		c.Delete(ctx, container.ContainerID)
	default:
		c.logger.Warn("redis set failed", zap.String("container_id", container.ContainerID), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn("redis delete failed", zap.String("container_id", id), zap.Error(err))
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
