package cache

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/passes"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecords() []passes.PassRecord {
	start := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	return []passes.PassRecord{
		{
			StartTime:        start,
			EndTime:          start.Add(8 * time.Minute),
			MaxElevation:     42.5,
			MaxElevationTime: start.Add(4 * time.Minute),
			DurationMinutes:  8.0,
		},
	}
}

func TestCacheHit(t *testing.T) {
	c := NewPredictionCache(time.Hour, testLogger())
	fetched := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	key := NewKey(25544, 40.7128, -74.006, 10, 24, 10)

	c.Put(key, sampleRecords(), fetched)

	got := c.Get(key, fetched)
	if got == nil {
		t.Fatal("expected hit")
	}
	if len(got) != 1 || got[0].MaxElevation != 42.5 {
		t.Errorf("unexpected records: %+v", got)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 0 {
		t.Errorf("stats = %+v, want 1 hit, 0 misses", stats)
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewPredictionCache(time.Hour, testLogger())
	fetched := time.Now()

	if got := c.Get(NewKey(25544, 40.7128, -74.006, 10, 24, 10), fetched); got != nil {
		t.Errorf("expected miss, got %+v", got)
	}
	if stats := c.Stats(); stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
}

func TestCacheKeyDistinguishesParameters(t *testing.T) {
	c := NewPredictionCache(time.Hour, testLogger())
	fetched := time.Now()
	c.Put(NewKey(25544, 40.7128, -74.006, 10, 24, 10), sampleRecords(), fetched)

	others := []Key{
		NewKey(20580, 40.7128, -74.006, 10, 24, 10), // different satellite
		NewKey(25544, 51.4778, -0.0015, 10, 24, 10), // different station
		NewKey(25544, 40.7128, -74.006, 10, 48, 10), // different horizon
		NewKey(25544, 40.7128, -74.006, 10, 24, 30), // different threshold
	}
	for _, key := range others {
		if got := c.Get(key, fetched); got != nil {
			t.Errorf("key %v: expected miss", key)
		}
	}
}

func TestCacheKeyRoundsCoordinates(t *testing.T) {
	a := NewKey(25544, 40.71280004, -74.00600002, 10, 24, 10)
	b := NewKey(25544, 40.71280001, -74.00600009, 10, 24, 10)
	if a != b {
		t.Errorf("keys differing below 1e-4 deg should collide: %v vs %v", a, b)
	}
}

func TestCacheInvalidatedByNewDataset(t *testing.T) {
	c := NewPredictionCache(time.Hour, testLogger())
	key := NewKey(25544, 40.7128, -74.006, 10, 24, 10)
	oldFetch := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	newFetch := oldFetch.Add(2 * time.Hour)

	c.Put(key, sampleRecords(), oldFetch)

	if got := c.Get(key, newFetch); got != nil {
		t.Error("entry from stale dataset should miss")
	}
	if stats := c.Stats(); stats.Entries != 0 {
		t.Errorf("stale entry should be dropped, entries = %d", stats.Entries)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewPredictionCache(time.Nanosecond, testLogger())
	fetched := time.Now()
	key := NewKey(25544, 40.7128, -74.006, 10, 24, 10)

	c.Put(key, sampleRecords(), fetched)
	time.Sleep(time.Millisecond)

	if got := c.Get(key, fetched); got != nil {
		t.Error("expired entry should miss")
	}
}

func TestSweep(t *testing.T) {
	c := NewPredictionCache(time.Hour, testLogger())
	oldFetch := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	newFetch := oldFetch.Add(2 * time.Hour)

	c.Put(NewKey(25544, 40.7128, -74.006, 10, 24, 10), sampleRecords(), oldFetch)
	c.Put(NewKey(20580, 40.7128, -74.006, 10, 24, 10), sampleRecords(), newFetch)

	removed := c.Sweep(newFetch)
	if removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if stats := c.Stats(); stats.Entries != 1 {
		t.Errorf("entries after sweep = %d, want 1", stats.Entries)
	}
}
