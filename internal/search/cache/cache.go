// Package cache keeps resolved result sets under their search key, bounded by
// a TTL and a capacity, and persists the whole state after every change.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"credsearch/internal/search/metrics"
	"credsearch/internal/search/models"
	"credsearch/pkg/platform/sentinel"
)

const (
	DefaultCapacity = 200
	DefaultTTL      = 24 * time.Hour

	defaultPopularLimit = 10
)

// Config is fixed for the lifetime of a Cache.
type Config struct {
	Capacity int
	TTL      time.Duration
}

type entry struct {
	results   *models.ResultSet
	createdAt time.Time
}

// Cache maps search keys to result sets. All mutations happen under mu;
// snapshot writes happen under persistMu, which is acquired before mu is
// released so snapshots reach the sink in mutation order.
type Cache struct {
	mu        sync.Mutex
	persistMu sync.Mutex

	entries map[models.SearchKey]*entry
	counts  map[models.SearchKey]int
	stats   SnapshotStats

	capacity int
	ttl      time.Duration

	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Cache)

// WithSink enables persistence. Without a sink the cache is memory-only.
func WithSink(sink Sink) Option {
	return func(c *Cache) {
		c.sink = sink
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(cfg Config, opts ...Option) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	c := &Cache{
		entries:  make(map[models.SearchKey]*entry),
		counts:   make(map[models.SearchKey]int),
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load restores state from the sink and returns the number of live entries.
// Entries already past the TTL are dropped. A missing or unreadable snapshot
// leaves the cache empty; the failure is logged, never returned.
func (c *Cache) Load(ctx context.Context) int {
	if c.sink == nil {
		return 0
	}
	snap, err := c.sink.Load(ctx)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "cache snapshot unreadable, starting empty", "error", err)
			if c.metrics != nil {
				c.metrics.RecordSnapshotFailure()
			}
		}
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries = make(map[models.SearchKey]*entry, len(snap.Entries))
	c.counts = make(map[models.SearchKey]int, len(snap.Entries))
	for k, e := range snap.Entries {
		if c.expired(e.Timestamp, now) {
			continue
		}
		key := models.SearchKey(k)
		c.entries[key] = &entry{results: models.NewResultSet(e.Results...), createdAt: e.Timestamp}
		count := snap.AccessCount[k]
		if count < 1 {
			count = 1
		}
		c.counts[key] = count
	}
	c.stats = snap.Stats
	c.updateGauge()

	c.logger.InfoContext(ctx, "cache snapshot loaded", "keys", len(c.entries), "dropped", len(snap.Entries)-len(c.entries))
	return len(c.entries)
}

// Get returns a copy of the cached results for key. Every call counts as a
// request and first sweeps expired entries from the whole cache.
func (c *Cache) Get(key models.SearchKey) (*models.ResultSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalRequests++
	c.sweepLocked()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		if c.metrics != nil {
			c.metrics.RecordCacheMiss()
		}
		return nil, false
	}

	c.counts[key]++
	c.stats.Hits++
	if c.metrics != nil {
		c.metrics.RecordCacheHit()
	}
	return e.results.Clone(), true
}

// Set stores results under key and persists the snapshot before returning.
// It does nothing when completed is false or results is empty, so cancelled
// or empty searches never hide data ingested later. It reports whether the
// entry was stored.
func (c *Cache) Set(ctx context.Context, key models.SearchKey, results *models.ResultSet, completed bool) bool {
	if !completed {
		c.logger.DebugContext(ctx, "cache skip: search incomplete", "key", key)
		return false
	}
	if results.IsEmpty() {
		c.logger.DebugContext(ctx, "cache skip: no results", "key", key)
		return false
	}

	c.mu.Lock()
	c.sweepLocked()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked(ctx)
	}
	c.entries[key] = &entry{results: results.Clone(), createdAt: c.now()}
	c.counts[key] = 1
	c.updateGauge()
	c.logger.DebugContext(ctx, "cache set", "key", key, "results", results.Len())

	c.persistUnlocking(ctx)
	return true
}

// Clear drops every entry, counter and statistic, then persists.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[models.SearchKey]*entry)
	c.counts = make(map[models.SearchKey]int)
	c.stats = SnapshotStats{}
	c.updateGauge()
	c.logger.InfoContext(ctx, "cache cleared")

	c.persistUnlocking(ctx)
}

// Save persists the current state. It is used by maintenance and shutdown.
func (c *Cache) Save(ctx context.Context) error {
	c.mu.Lock()
	return c.persistUnlocking(ctx)
}

// Stats returns the request counters plus derived hit rate and key count.
func (c *Cache) Stats() models.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := models.CacheStats{
		TotalRequests: c.stats.TotalRequests,
		Hits:          c.stats.Hits,
		Misses:        c.stats.Misses,
		CachedKeys:    len(c.entries),
	}
	if stats.TotalRequests > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.TotalRequests) * 100
	}
	return stats
}

// Popular returns up to limit keys ordered by access count, highest first.
// Ties are ordered by key. A non-positive limit means 10.
func (c *Cache) Popular(limit int) []models.PopularEntry {
	if limit <= 0 {
		limit = defaultPopularLimit
	}

	c.mu.Lock()
	out := make([]models.PopularEntry, 0, len(c.counts))
	for k, n := range c.counts {
		out = append(out, models.PopularEntry{Key: k, Count: n})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of live entries, after sweeping expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	return len(c.entries)
}

// RunMaintenance sweeps expired entries and persists on every tick until ctx
// is done.
func (c *Cache) RunMaintenance(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			removed := c.sweepLocked()
			c.logger.DebugContext(ctx, "cache maintenance", "expired", removed, "keys", len(c.entries))
			_ = c.persistUnlocking(ctx)
		}
	}
}

func (c *Cache) expired(createdAt, now time.Time) bool {
	return now.After(createdAt.Add(c.ttl))
}

// sweepLocked removes expired entries and their counters. mu must be held.
func (c *Cache) sweepLocked() int {
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if c.expired(e.createdAt, now) {
			delete(c.entries, k)
			delete(c.counts, k)
			removed++
		}
	}
	if removed > 0 {
		if c.metrics != nil {
			c.metrics.RecordExpirations(removed)
		}
		c.updateGauge()
	}
	return removed
}

// evictLocked removes the entry with the lowest access count; ties go to the
// smallest key. mu must be held.
func (c *Cache) evictLocked(ctx context.Context) {
	var (
		victim models.SearchKey
		lowest int
		found  bool
	)
	for k := range c.entries {
		n := c.counts[k]
		if !found || n < lowest || (n == lowest && k < victim) {
			victim, lowest, found = k, n, true
		}
	}
	if !found {
		return
	}
	delete(c.entries, victim)
	delete(c.counts, victim)
	if c.metrics != nil {
		c.metrics.RecordEviction()
	}
	c.logger.DebugContext(ctx, "cache evicted", "key", victim, "access_count", lowest)
}

func (c *Cache) updateGauge() {
	if c.metrics != nil {
		c.metrics.SetCachedKeys(len(c.entries))
	}
}

func (c *Cache) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		Entries:     make(map[string]SnapshotEntry, len(c.entries)),
		AccessCount: make(map[string]int, len(c.counts)),
		Stats:       c.stats,
	}
	for k, e := range c.entries {
		snap.Entries[string(k)] = SnapshotEntry{Results: e.results.Records(), Timestamp: e.createdAt}
	}
	for k, n := range c.counts {
		snap.AccessCount[string(k)] = n
	}
	return snap
}

// persistUnlocking must be called with mu held; it releases mu once the
// snapshot is taken and writes it under persistMu. A failed write is logged
// and leaves the in-memory state authoritative.
func (c *Cache) persistUnlocking(ctx context.Context) error {
	if c.sink == nil {
		c.mu.Unlock()
		return nil
	}
	snap := c.snapshotLocked()
	c.persistMu.Lock()
	c.mu.Unlock()
	defer c.persistMu.Unlock()

	if err := c.sink.Save(ctx, snap); err != nil {
		c.logger.ErrorContext(ctx, "cache snapshot write failed", "error", err)
		if c.metrics != nil {
			c.metrics.RecordSnapshotFailure()
		}
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}
