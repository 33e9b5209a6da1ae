package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pitabwire/ngazi/internal/observability"
)

// CachedLoader wraps a Loader with a TTL cache keyed by (workflow, state).
// Cached snapshots are shared between callers; Close on a shared snapshot is
// harmless because materialized snapshots hold no live acquisition.
type CachedLoader struct {
	loader     *Loader
	defaultTTL time.Duration
	maxEntries int
	metrics    *observability.Metrics

	mu    sync.RWMutex
	cache map[stateKey]cacheEntry
}

type cacheEntry struct {
	dir       *Directory
	expiresAt time.Time
}

// NewCachedLoader creates a CachedLoader around loader. Metrics may be nil.
func NewCachedLoader(loader *Loader, ttl time.Duration, maxEntries int, metrics *observability.Metrics) *CachedLoader {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &CachedLoader{
		loader:     loader,
		defaultTTL: ttl,
		maxEntries: maxEntries,
		metrics:    metrics,
		cache:      make(map[stateKey]cacheEntry),
	}
}

// Load returns the cached snapshot for (workflowID, stateID) if present and
// fresh, otherwise loads and caches a new one. Load errors are never cached.
func (c *CachedLoader) Load(ctx context.Context, workflowID, stateID int64) (*Directory, error) {
	key := stateKey{workflowID, stateID}

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		if c.metrics != nil {
			c.metrics.DirectoryCacheHitsTotal.Inc()
		}
		return entry.dir, nil
	}

	if c.metrics != nil {
		c.metrics.DirectoryCacheMissesTotal.Inc()
	}

	dir, err := c.loader.Load(ctx, workflowID, stateID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.cache) >= c.maxEntries {
		c.evictExpired()
	}
	c.cache[key] = cacheEntry{dir: dir, expiresAt: time.Now().Add(c.defaultTTL)}
	c.mu.Unlock()

	return dir, nil
}

// Invalidate drops the cached snapshot for one workflow state.
func (c *CachedLoader) Invalidate(workflowID, stateID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, stateKey{workflowID, stateID})
}

// InvalidateWorkflow drops every cached snapshot for a workflow. Used when
// the workflow's role assignments change.
func (c *CachedLoader) InvalidateWorkflow(workflowID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.cache {
		if k.workflowID == workflowID {
			delete(c.cache, k)
		}
	}
}

// evictExpired removes expired entries. Must be called with mu held.
func (c *CachedLoader) evictExpired() {
	now := time.Now()
	for k, v := range c.cache {
		if now.After(v.expiresAt) {
			delete(c.cache, k)
		}
	}
}

// CacheLen returns the number of cached snapshots. For testing.
func (c *CachedLoader) CacheLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// HealthCheck delegates to the underlying loader.
func (c *CachedLoader) HealthCheck(ctx context.Context) error {
	if err := c.loader.HealthCheck(ctx); err != nil {
		return fmt.Errorf("directory cache: %w", err)
	}
	return nil
}
