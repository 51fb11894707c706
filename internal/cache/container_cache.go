package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

type ContainerLoader interface {
	ListContainers(ctx context.Context, filter storage.ListFilter) ([]*clearance.Container, error)
}

// ContainerCache keeps copies of containers still moving through clearance.
// Released and failed containers are evicted on Set. The last version seen
// per id outlives eviction, so a Set carrying an older version than one
// already seen is dropped.
type ContainerCache struct {
	mu       sync.RWMutex
	cache    map[string]*clearance.Container
	versions map[string]int
	logger   *zap.Logger
}

func NewContainerCache(logger *zap.Logger) *ContainerCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContainerCache{
		cache:    make(map[string]*clearance.Container),
		versions: make(map[string]int),
		logger:   logger,
	}
}

// LoadInitialData warms the cache with the most recent active containers.
func (c *ContainerCache) LoadInitialData(ctx context.Context, loader ContainerLoader) error {
	c.logger.Info("loading initial data into container cache")
	containers, err := loader.ListContainers(ctx, storage.ListFilter{})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, container := range containers {
		c.setLocked(container)
	}
	metrics.ContainerCacheItems.Set(float64(len(c.cache)))
	c.logger.Info("container cache loaded", zap.Int("containers", len(c.cache)))
	return nil
}

func (c *ContainerCache) Get(_ context.Context, id string) (*clearance.Container, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	container, found := c.cache[id]
	if !found {
		metrics.CacheRequestsTotal.WithLabelValues(resultMiss).Inc()
		return nil, false
	}
	metrics.CacheRequestsTotal.WithLabelValues(resultHit).Inc()
	return container.Clone(), true
}

func (c *ContainerCache) Set(_ context.Context, container *clearance.Container) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.setLocked(container) {
		c.logger.Debug("stale cache set dropped",
			zap.String("container_id", container.ContainerID),
			zap.Int("version", container.Version()))
		return
	}
	c.logger.Debug("cache set",
		zap.String("container_id", container.ContainerID),
		zap.String("overall_status", string(container.OverallStatus)))
}

func (c *ContainerCache) setLocked(container *clearance.Container) bool {
	id := container.ContainerID
	if seen, ok := c.versions[id]; ok && seen > container.Version() {
		return false
	}
	c.versions[id] = container.Version()

	if container.OverallStatus.Terminal() {
		c.deleteLocked(id)
		return true
	}
	c.cache[id] = container.Clone()
	metrics.ContainerCacheItems.Set(float64(len(c.cache)))
	return true
}

func (c *ContainerCache) Delete(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(id)
}

func (c *ContainerCache) deleteLocked(id string) {
	if _, found := c.cache[id]; found {
		delete(c.cache, id)
		metrics.ContainerCacheItems.Set(float64(len(c.cache)))
		c.logger.Debug("cache delete", zap.String("container_id", id))
	}
}

func (c *ContainerCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
