package cache

import (
	"context"
	"sync"
	"time"

	"remarkcli/pkg/contracts/domain"
)

type memoryEntry struct {
	report    domain.Report
	cachedAt  time.Time
	expiresAt time.Time
	hits      int
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int     `json:"entries"`
	MaxSize   int     `json:"max_size"`
	HitCount  int64   `json:"hit_count"`
	MissCount int64   `json:"miss_count"`
	HitRatio  float64 `json:"hit_ratio"`
	TTL       float64 `json:"ttl_seconds"`
}

// MemoryCache is an in-process TTL cache with a bounded number of entries.
// When full, the oldest entry is evicted.
type MemoryCache struct {
	entries   map[string]memoryEntry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewMemoryCache creates a memory cache and starts its expiry sweeper.
func NewMemoryCache(ttl time.Duration, maxSize int) *MemoryCache {
	c := &MemoryCache{
		entries:  make(map[string]memoryEntry),
		ttl:      ttl,
		maxSize:  maxSize,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get returns a copy of the cached report.
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.Report, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiresAt) {
		c.missCount++
		return nil, false
	}

	entry.hits++
	c.entries[key] = entry
	c.hitCount++

	report := entry.report
	return &report, true
}

// Set stores a report. A non-positive max size disables storage.
func (c *MemoryCache) Set(_ context.Context, key string, report *domain.Report) error {
	if report == nil {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return nil
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	c.entries[key] = memoryEntry{
		report:    *report,
		cachedAt:  now,
		expiresAt: now.Add(c.ttl),
	}
	return nil
}

// Invalidate removes one entry.
func (c *MemoryCache) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}

	return Stats{
		Entries:   len(c.entries),
		MaxSize:   c.maxSize,
		HitCount:  c.hitCount,
		MissCount: c.missCount,
		HitRatio:  ratio,
		TTL:       c.ttl.Seconds(),
	}
}

func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryCache) purgeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Stop ends the expiry sweeper. It is safe to call more than once.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *MemoryCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stopChan:
			return
		}
	}
}
