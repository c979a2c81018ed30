package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	data       []byte
	createdAt  time.Time
	lastAccess time.Time
}

// MemoryCache is a size-bounded in-process layer with LRU eviction and a TTL.
type MemoryCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*memoryEntry
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	now         func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

func NewMemoryCache(maxSizeBytes int64, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[uuid.UUID]*memoryEntry),
		maxSize: maxSizeBytes,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (mc *MemoryCache) Name() string {
	return "memory"
}

func (mc *MemoryCache) Set(_ context.Context, id uuid.UUID, data []byte) error {
	size := int64(len(data))
	if size > mc.maxSize {
		return ErrTooLarge
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.removeLocked(id)
	for mc.currentSize+size > mc.maxSize {
		if !mc.evictLRULocked() {
			return ErrTooLarge
		}
	}
	now := mc.now()
	mc.entries[id] = &memoryEntry{data: data, createdAt: now, lastAccess: now}
	mc.currentSize += size
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, id uuid.UUID) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.entries[id]
	if ok && mc.expired(entry) {
		mc.removeLocked(id)
		ok = false
	}
	if !ok {
		mc.misses.Add(1)
		return nil, ErrMiss
	}
	entry.lastAccess = mc.now()
	mc.hits.Add(1)
	return entry.data, nil
}

func (mc *MemoryCache) Delete(_ context.Context, id uuid.UUID) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.removeLocked(id)
	return nil
}

func (mc *MemoryCache) Clear(_ context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries = make(map[uuid.UUID]*memoryEntry)
	mc.currentSize = 0
	mc.hits.Store(0)
	mc.misses.Store(0)
	return nil
}

func (mc *MemoryCache) Stats(_ context.Context) LayerStats {
	mc.mu.Lock()
	objects, size := len(mc.entries), mc.currentSize
	mc.mu.Unlock()

	hits, misses := mc.hits.Load(), mc.misses.Load()
	return LayerStats{
		Name:      mc.Name(),
		Objects:   objects,
		SizeBytes: size,
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate(hits, misses),
	}
}

// Run sweeps expired entries every interval until ctx is done.
func (mc *MemoryCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mc.sweep()
		}
	}
}

// sweep removes expired entries and returns how many were dropped.
func (mc *MemoryCache) sweep() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	removed := 0
	for id, entry := range mc.entries {
		if mc.expired(entry) {
			mc.removeLocked(id)
			removed++
		}
	}
	return removed
}

func (mc *MemoryCache) expired(entry *memoryEntry) bool {
	return mc.ttl > 0 && mc.now().Sub(entry.createdAt) > mc.ttl
}

func (mc *MemoryCache) removeLocked(id uuid.UUID) {
	if entry, ok := mc.entries[id]; ok {
		mc.currentSize -= int64(len(entry.data))
		delete(mc.entries, id)
	}
}

func (mc *MemoryCache) evictLRULocked() bool {
	var oldestID uuid.UUID
	var oldest *memoryEntry
	for id, entry := range mc.entries {
		if oldest == nil || entry.lastAccess.Before(oldest.lastAccess) {
			oldestID, oldest = id, entry
		}
	}
	if oldest == nil {
		return false
	}
	mc.removeLocked(oldestID)
	return true
}
