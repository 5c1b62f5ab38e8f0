package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Cache provides 2-tier caching: L1 in-memory + optional L2 store
// (Redis, Postgres or SQLite). L1 is fast but lost on restart. L2 survives restarts.
var resultCache *tieredCache

// Cache metrics.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

// CacheConfig selects the L2 store and L1 limits. The first non-empty of
// RedisURL, DatabaseURL, SQLitePath wins; all empty means L1 only.
type CacheConfig struct {
	RedisURL        string
	DatabaseURL     string
	SQLitePath      string
	TTL             time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
}

// cacheStore is an L2 backend. Get reports a miss as (nil, false, nil).
type cacheStore interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Close() error
}

// purger is implemented by stores that need expired rows removed explicitly.
type purger interface {
	Purge(ctx context.Context) error
}

// tieredCache implements L1 (memory) + L2 (store) caching.
type tieredCache struct {
	l1              sync.Map   // key → *cacheEntry
	l2              cacheStore // nil if no store configured or reachable
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stop            chan struct{}
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InitCache sets up the 2-tier cache. Call after Init().
// An unreachable L2 store is logged and skipped.
func InitCache(ctx context.Context, cc CacheConfig) {
	if cc.TTL <= 0 {
		cc.TTL = 6 * time.Hour
	}
	c := &tieredCache{
		ttl:             cc.TTL,
		maxEntries:      cc.MaxEntries,
		cleanupInterval: cc.CleanupInterval,
		stop:            make(chan struct{}),
	}

	store, err := openStore(ctx, cc)
	switch {
	case err != nil:
		slog.Warn("cache: L2 unavailable, using L1 only", slog.Any("error", err))
	case store != nil:
		c.l2 = store
		slog.Info("cache: L2 connected", slog.String("store", store.Name()))
	}

	if prev := resultCache; prev != nil {
		close(prev.stop)
		if prev.l2 != nil {
			_ = prev.l2.Close()
		}
	}
	resultCache = c
	l2 := "none"
	if c.l2 != nil {
		l2 = c.l2.Name()
	}
	slog.Info("cache: initialized", slog.Duration("ttl", cc.TTL), slog.String("l2", l2), slog.Int("max_entries", cc.MaxEntries))

	go c.cleanupLoop()
}

func openStore(ctx context.Context, cc CacheConfig) (cacheStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	switch {
	case cc.RedisURL != "":
		return newRedisStore(ctx, cc.RedisURL)
	case cc.DatabaseURL != "":
		return newPostgresStore(ctx, cc.DatabaseURL)
	case cc.SQLitePath != "":
		return newSQLiteStore(ctx, cc.SQLitePath)
	}
	return nil, nil
}

// CloseCache stops the cleanup loop and closes the L2 store.
func CloseCache() {
	if resultCache == nil {
		return
	}
	close(resultCache.stop)
	if resultCache.l2 != nil {
		if err := resultCache.l2.Close(); err != nil {
			slog.Debug("cache: L2 close failed", slog.Any("error", err))
		}
	}
	resultCache = nil
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("yt:%x", hash[:12]) // 24-char hex prefix
}

// CacheGet tries L1, then L2. On L2 hit, populates L1.
func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	c := resultCache
	if c == nil {
		cacheMisses.Add(1)
		return nil, false
	}

	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			slog.Debug("cache: L1 hit", slog.String("key", key))
			cacheHits.Add(1)
			return entry.data, true
		}
		c.l1.Delete(key) // expired
	}

	if c.l2 != nil {
		data, ok, err := c.l2.Get(ctx, key)
		if err != nil {
			slog.Debug("cache: L2 get failed", slog.String("store", c.l2.Name()), slog.Any("error", err))
		}
		if ok {
			slog.Debug("cache: L2 hit", slog.String("key", key))
			cacheHits.Add(1)
			c.l1.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(c.ttl)})
			return data, true
		}
	}

	cacheMisses.Add(1)
	return nil, false
}

// CacheSet stores data in both L1 and L2.
func CacheSet(ctx context.Context, key string, data []byte) {
	c := resultCache
	if c == nil {
		return
	}

	c.evictIfNeeded()
	c.l1.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(c.ttl)})

	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, data, c.ttl); err != nil {
			slog.Debug("cache: L2 set failed", slog.String("store", c.l2.Name()), slog.Any("error", err))
		}
	}
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// evictIfNeeded removes entries when L1 exceeds maxEntries.
// Removes expired entries first, then oldest entries if still over limit.
func (c *tieredCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}

	// Phase 1: remove expired
	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})
	if count < c.maxEntries {
		return
	}

	// Phase 2: earliest expiry is the oldest entry (expiry = createdAt + ttl)
	for count >= c.maxEntries {
		var oldestKey any
		oldestAt := now.Add(c.ttl + time.Hour)
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		c.l1.Delete(oldestKey)
		count--
	}
}

// cleanupLoop periodically removes expired L1 entries and purges the L2 store.
func (c *tieredCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
		now := time.Now()
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
				c.l1.Delete(key)
			}
			return true
		})
		if p, ok := c.l2.(purger); ok {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := p.Purge(ctx); err != nil {
				slog.Debug("cache: L2 purge failed", slog.Any("error", err))
			}
			cancel()
		}
	}
}
