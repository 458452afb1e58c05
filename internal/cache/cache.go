// internal/cache/cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultMaxSize = 1000

// Stats is a point-in-time view of cache occupancy and effectiveness.
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	HitRate float64 `json:"hitRate"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
}

// ResultCache stores validated fix results with a per-entry TTL on top of a
// durable Store. Every operation is serialized by a single mutex.
type ResultCache struct {
	mu      sync.Mutex
	store   Store
	maxSize int
	logger  *zap.Logger
	now     func() time.Time

	hits   int64
	misses int64
}

// New wraps store. A non-positive maxSize falls back to 1000 entries.
func New(store Store, maxSize int, logger *zap.Logger) *ResultCache {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{
		store:   store,
		maxSize: maxSize,
		logger:  logger.Named("cache"),
		now:     time.Now,
	}
}

// Open builds the store selected by cfg.Backend and wraps it in a cache.
func Open(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*ResultCache, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case config.CacheBackendPostgres:
		store, err = OpenPostgres(ctx, cfg.PostgresURL, logger)
	case config.CacheBackendSQLite, "":
		store, err = OpenSQLite(ctx, cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend '%s'", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache store: %w", cfg.Backend, err)
	}
	return New(store, cfg.MaxSize, logger), nil
}

// Get returns the cached result for key. Expired and undecodable entries are
// deleted and reported as misses.
func (c *ResultCache) Get(ctx context.Context, key string) (*schemas.RankedFixResult, bool) {
	k := sanitizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found, err := c.store.Get(ctx, k)
	if err != nil {
		c.logger.Warn("Cache lookup failed, treating as miss.", zap.String("key", k), zap.Error(err))
		c.misses++
		return nil, false
	}
	if !found {
		c.misses++
		return nil, false
	}

	if entry.ExpiryMs <= c.now().UnixMilli() {
		c.deleteLocked(ctx, k)
		c.misses++
		return nil, false
	}

	var result schemas.RankedFixResult
	if err := json.UnmarshalFromString(entry.Payload, &result); err != nil {
		c.logger.Warn("Corrupt cache entry removed.", zap.String("key", k), zap.Error(err))
		c.deleteLocked(ctx, k)
		c.misses++
		return nil, false
	}

	c.hits++
	return &result, true
}

// Set stores value under key for ttl. Expired entries are purged first; if
// the table is still full and key is new, the entry nearest to expiry is
// evicted.
func (c *ResultCache) Set(ctx context.Context, key string, value *schemas.RankedFixResult, ttl time.Duration) error {
	if value == nil {
		return errors.New("cache value must not be nil")
	}
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	payload, err := json.MarshalToString(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	k := sanitizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixMilli()
	if _, err := c.store.PurgeExpired(ctx, now); err != nil {
		return err
	}

	count, err := c.store.Count(ctx)
	if err != nil {
		return err
	}
	if count >= c.maxSize {
		// After the purge any existing row for k is live, so writing it is a
		// replacement that does not grow the table.
		_, exists, err := c.store.Get(ctx, k)
		if err != nil {
			return err
		}
		if !exists {
			evicted, err := c.store.EvictNearestExpiry(ctx)
			if err != nil {
				return err
			}
			c.logger.Debug("Cache full, evicted entry.", zap.String("evicted", evicted), zap.Int("max_size", c.maxSize))
		}
	}

	return c.store.Put(ctx, Entry{Key: k, Payload: payload, ExpiryMs: now + ttl.Milliseconds()})
}

// Has reports whether a live entry exists for key without touching the hit
// counters.
func (c *ResultCache) Has(ctx context.Context, key string) bool {
	k := sanitizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found, err := c.store.Get(ctx, k)
	if err != nil || !found {
		return false
	}
	if entry.ExpiryMs <= c.now().UnixMilli() {
		c.deleteLocked(ctx, k)
		return false
	}
	return true
}

// Delete removes key if present.
func (c *ResultCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Delete(ctx, sanitizeKey(key))
}

// Size returns the number of stored entries, expired ones included until
// the next purge.
func (c *ResultCache) Size(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Count(ctx)
}

// Clear removes every entry and resets the hit and miss counters.
func (c *ResultCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.hits, c.misses = 0, 0
	return nil
}

// Stats reports the current size against maxSize along with the hit and
// miss counts since the last Clear. HitRate is 0 before any lookup.
func (c *ResultCache) Stats(ctx context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size, err := c.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{Size: size, MaxSize: c.maxSize, Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s, nil
}

// Sweep purges expired entries once and returns how many were removed.
func (c *ResultCache) Sweep(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.PurgeExpired(ctx, c.now().UnixMilli())
}

// StartSweeper runs Sweep every interval until ctx is cancelled. The returned
// channel is closed once the sweeper goroutine has exited.
func (c *ResultCache) StartSweeper(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := c.Sweep(ctx)
				if err != nil {
					if ctx.Err() == nil {
						c.logger.Warn("Cache sweep failed.", zap.Error(err))
					}
					continue
				}
				if removed > 0 {
					c.logger.Debug("Expired cache entries purged.", zap.Int64("removed", removed))
				}
			}
		}
	}()
	return done
}

// Close releases the underlying store.
func (c *ResultCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Close()
}

func (c *ResultCache) deleteLocked(ctx context.Context, k string) {
	if err := c.store.Delete(ctx, k); err != nil {
		c.logger.Warn("Failed to delete cache entry.", zap.String("key", k), zap.Error(err))
	}
}
