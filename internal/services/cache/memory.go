package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = time.Minute
)

// MemoryCache is a size-bounded in-process cache with per-key expiry
type MemoryCache struct {
	mu          sync.RWMutex
	items       map[string]*cacheItem
	maxBytes    int64
	currentSize atomic.Int64

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type cacheItem struct {
	value  []byte
	expiry time.Time
	size   int64
}

// NewMemoryCache creates a cache limited to maxSizeMB (0 means
// unbounded) that sweeps expired entries every cleanupInterval.
func NewMemoryCache(maxSizeMB int64, cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	mc := &MemoryCache{
		items:    make(map[string]*cacheItem),
		maxBytes: maxSizeMB * 1024 * 1024,
		stopCh:   make(chan struct{}),
	}

	mc.wg.Add(1)
	go mc.cleanupExpired(cleanupInterval)

	return mc
}

// Get retrieves a value from the cache
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	mc.mu.RLock()
	item, exists := mc.items[key]
	mc.mu.RUnlock()

	if !exists || time.Now().After(item.expiry) {
		if exists {
			mc.remove(key, &mc.evictions)
		}
		mc.misses.Add(1)
		return nil, false
	}

	mc.hits.Add(1)
	return item.value, true
}

// Set stores a value in the cache with a TTL
func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	size := int64(len(key) + len(value))
	item := &cacheItem{
		value:  value,
		expiry: time.Now().Add(ttl),
		size:   size,
	}

	mc.mu.Lock()
	if old, exists := mc.items[key]; exists {
		mc.currentSize.Add(-old.size)
		delete(mc.items, key)
	}
	mc.makeRoomLocked(size)
	mc.items[key] = item
	mc.currentSize.Add(size)
	mc.mu.Unlock()

	mc.sets.Add(1)
	return nil
}

// Delete removes a value from the cache
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.remove(key, &mc.deletes)
	return nil
}

// DeletePrefix removes every key starting with prefix
func (mc *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	mc.mu.Lock()
	for key, item := range mc.items {
		if strings.HasPrefix(key, prefix) {
			delete(mc.items, key)
			mc.currentSize.Add(-item.size)
			mc.deletes.Add(1)
		}
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) remove(key string, counter *atomic.Int64) {
	mc.mu.Lock()
	if item, exists := mc.items[key]; exists {
		delete(mc.items, key)
		mc.currentSize.Add(-item.size)
		counter.Add(1)
	}
	mc.mu.Unlock()
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() CacheStats {
	return CacheStats{
		Hits:      mc.hits.Load(),
		Misses:    mc.misses.Load(),
		Sets:      mc.sets.Load(),
		Deletes:   mc.deletes.Load(),
		Evictions: mc.evictions.Load(),
		Size:      mc.currentSize.Load(),
		MaxSize:   mc.maxBytes,
	}
}

// Stop ends the sweeper; safe to call more than once
func (mc *MemoryCache) Stop() {
	mc.stopOnce.Do(func() {
		close(mc.stopCh)
	})
	mc.wg.Wait()
}

func (mc *MemoryCache) cleanupExpired(interval time.Duration) {
	defer mc.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			mc.removeExpiredLocked(time.Now())
			mc.mu.Unlock()
		case <-mc.stopCh:
			return
		}
	}
}

func (mc *MemoryCache) removeExpiredLocked(now time.Time) {
	for key, item := range mc.items {
		if now.After(item.expiry) {
			delete(mc.items, key)
			mc.currentSize.Add(-item.size)
			mc.evictions.Add(1)
		}
	}
}

// makeRoomLocked drops expired entries, then the entries closest to
// expiry, until sizeNeeded fits.
func (mc *MemoryCache) makeRoomLocked(sizeNeeded int64) {
	if mc.maxBytes <= 0 || mc.currentSize.Load()+sizeNeeded <= mc.maxBytes {
		return
	}

	mc.removeExpiredLocked(time.Now())

	for mc.currentSize.Load()+sizeNeeded > mc.maxBytes && len(mc.items) > 0 {
		var victim string
		var soonest time.Time
		for key, item := range mc.items {
			if victim == "" || item.expiry.Before(soonest) {
				victim, soonest = key, item.expiry
			}
		}
		mc.currentSize.Add(-mc.items[victim].size)
		delete(mc.items, victim)
		mc.evictions.Add(1)
	}
}
