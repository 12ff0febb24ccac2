package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Summary cache, 2-tier: L1 in-memory + L2 Redis. L1 is fast but lost on
// restart; L2 survives restarts so a redeploy does not re-bill LLM calls for
// videos summarized minutes ago.
var summaryCache *tieredCache

var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type tieredCache struct {
	l1              sync.Map      // key → *cacheEntry
	rdb             *redis.Client // nil if Redis unavailable
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InitCache sets up the 2-tier cache. Call after Init().
// redisURL can be empty to disable L2.
func InitCache(redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	c := &tieredCache{ttl: ttl, maxEntries: maxEntries, cleanupInterval: cleanupInterval}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	summaryCache = c
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))

	go c.cleanupLoop()
}

// SummaryCacheKey builds a deterministic key for a (video, tier) pair.
// Tier is part of the key: a pro summary is not a valid elite summary.
func SummaryCacheKey(videoID string, tier Tier) string {
	hash := sha256.Sum256([]byte(videoID + "|" + string(tier)))
	return fmt.Sprintf("sum:%x", hash[:12])
}

// CacheGetSummary tries L1, then L2. On L2 hit, populates L1.
func CacheGetSummary(ctx context.Context, key string) (string, bool) {
	if summaryCache == nil {
		cacheMisses.Add(1)
		return "", false
	}

	if val, ok := summaryCache.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			cacheHits.Add(1)
			return string(entry.data), true
		}
		summaryCache.l1.Delete(key) // expired
	}

	if summaryCache.rdb != nil {
		data, err := summaryCache.rdb.Get(ctx, key).Bytes()
		if err == nil {
			cacheHits.Add(1)
			summaryCache.l1.Store(key, &cacheEntry{
				data:      data,
				expiresAt: time.Now().Add(summaryCache.ttl),
			})
			return string(data), true
		}
	}

	cacheMisses.Add(1)
	return "", false
}

// CacheSetSummary stores a summary in both L1 and L2.
func CacheSetSummary(ctx context.Context, key, summary string) {
	if summaryCache == nil {
		return
	}
	data := []byte(summary)

	summaryCache.evictIfNeeded()

	summaryCache.l1.Store(key, &cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(summaryCache.ttl),
	})

	if summaryCache.rdb != nil {
		if err := summaryCache.rdb.Set(ctx, key, data, summaryCache.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
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

	// Earlier expiry means older entry, since expiry = createdAt + ttl.
	var oldest struct {
		key any
		at  time.Time
	}
	for count >= c.maxEntries {
		oldest.key = nil
		oldest.at = time.Now().Add(time.Hour)
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok {
				if entry.expiresAt.Before(oldest.at) {
					oldest.key = key
					oldest.at = entry.expiresAt
				}
			}
			return true
		})
		if oldest.key == nil {
			break
		}
		c.l1.Delete(oldest.key)
		count--
	}
}

// cleanupLoop periodically removes expired L1 entries.
func (c *tieredCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
				c.l1.Delete(key)
			}
			return true
		})
	}
}
