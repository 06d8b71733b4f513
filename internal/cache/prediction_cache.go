// Package cache provides an in-memory cache of pass prediction results.
//
// A prediction scan for a multi-day window can take tens of milliseconds of
// propagation work, and clients tend to re-request the same satellite and
// ground station repeatedly. Entries are keyed by the full request shape and
// are invalidated when the TLE dataset they were computed from is replaced.
package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/metrics"
	"github.com/shivmishra76/sat-tracker-cli/internal/passes"
)

// Key identifies one prediction request. Observer coordinates are rounded to
// four decimal places (~11 m) so jittery client inputs still hit.
type Key struct {
	NORADID      int
	LatE4        int64
	LonE4        int64
	AltM         int64
	HorizonHours float64
	MinElevation float64
}

// NewKey builds a cache key from request parameters.
func NewKey(noradID int, latDeg, lonDeg, altM, horizonHours, minElevation float64) Key {
	return Key{
		NORADID:      noradID,
		LatE4:        int64(latDeg * 1e4),
		LonE4:        int64(lonDeg * 1e4),
		AltM:         int64(altM),
		HorizonHours: horizonHours,
		MinElevation: minElevation,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d,%d,%d/%gh/%gdeg",
		k.NORADID, k.LatE4, k.LonE4, k.AltM, k.HorizonHours, k.MinElevation)
}

// Entry holds one cached prediction result.
type Entry struct {
	Records []passes.PassRecord
	// DatasetFetchedAt pins the entry to the TLE dataset it was computed
	// from; a newer dataset invalidates the entry.
	DatasetFetchedAt time.Time
	StoredAt         time.Time
}

// PredictionCache caches pass prediction results with TTL expiry and
// dataset-change invalidation. Safe for concurrent use.
type PredictionCache struct {
	mu      sync.RWMutex
	entries map[Key]*Entry

	ttl    time.Duration
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewPredictionCache creates a cache whose entries expire after ttl.
func NewPredictionCache(ttl time.Duration, logger *slog.Logger) *PredictionCache {
	return &PredictionCache{
		entries: make(map[Key]*Entry),
		ttl:     ttl,
		logger:  logger,
	}
}

// Get returns the cached records for the key, or nil on a miss. An entry
// computed from an older TLE dataset than datasetFetchedAt counts as a miss
// and is dropped.
func (c *PredictionCache) Get(key Key, datasetFetchedAt time.Time) []passes.PassRecord {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && entry.DatasetFetchedAt.Equal(datasetFetchedAt) && time.Since(entry.StoredAt) < c.ttl {
		c.hits.Add(1)
		metrics.IncPredictionCacheHits()
		return entry.Records
	}

	if ok {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have refreshed it.
		if cur, still := c.entries[key]; still && cur == entry {
			delete(c.entries, key)
			c.evictions.Add(1)
			metrics.AddPredictionCacheEvictions(1)
		}
		c.mu.Unlock()
		c.publishSize()
	}

	c.misses.Add(1)
	metrics.IncPredictionCacheMisses()
	return nil
}

// Put stores a prediction result computed from the given dataset.
func (c *PredictionCache) Put(key Key, records []passes.PassRecord, datasetFetchedAt time.Time) {
	entry := &Entry{
		Records:          records,
		DatasetFetchedAt: datasetFetchedAt,
		StoredAt:         time.Now(),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	c.publishSize()
}

// Sweep removes expired entries and entries from datasets older than
// currentFetchedAt. Returns the number removed.
func (c *PredictionCache) Sweep(currentFetchedAt time.Time) int {
	cutoff := time.Now().Add(-c.ttl)
	var removed int

	c.mu.Lock()
	for key, entry := range c.entries {
		if entry.StoredAt.Before(cutoff) || !entry.DatasetFetchedAt.Equal(currentFetchedAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddPredictionCacheEvictions(removed)
		c.publishSize()
		c.logger.Debug("prediction cache sweep", "entries_removed", removed)
	}
	return removed
}

// Stats holds cache statistics for the stats endpoint.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Stats returns a snapshot of cache statistics.
func (c *PredictionCache) Stats() Stats {
	c.mu.RLock()
	count := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Entries:   count,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *PredictionCache) publishSize() {
	c.mu.RLock()
	count := len(c.entries)
	c.mu.RUnlock()
	metrics.SetPredictionCacheEntries(count)
}
