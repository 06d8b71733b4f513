package passes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// samplerFunc adapts a plain function to the Sampler interface so tests can
// drive the scanner with synthetic elevation profiles.
type samplerFunc func(t time.Time) (float64, error)

func (f samplerFunc) ElevationAt(t time.Time) (float64, error) { return f(t) }

var scanStart = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

// profileSampler returns an elevation keyed by whole minutes since scanStart;
// minutes not in the map are below the horizon.
func profileSampler(profile map[int]float64) Sampler {
	return samplerFunc(func(t time.Time) (float64, error) {
		min := int(t.Sub(scanStart).Minutes())
		if el, ok := profile[min]; ok {
			return el, nil
		}
		return -45, nil
	})
}

func TestScanSinglePass(t *testing.T) {
	// Above 10° from minute 10 through 14, peaking at minute 12.
	s := profileSampler(map[int]float64{
		10: 12.0,
		11: 30.0,
		12: 55.5,
		13: 28.0,
		14: 11.0,
	})

	records := scan(s, scanStart, scanStart.Add(time.Hour), time.Minute, 10, testLogger())
	if len(records) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(records))
	}

	p := records[0]
	if !p.StartTime.Equal(scanStart.Add(10 * time.Minute)) {
		t.Errorf("start = %v, want minute 10", p.StartTime)
	}
	// First failing sample is minute 15; the pass closes one step before it.
	if !p.EndTime.Equal(scanStart.Add(14 * time.Minute)) {
		t.Errorf("end = %v, want minute 14", p.EndTime)
	}
	if p.MaxElevation != 55.5 {
		t.Errorf("max elevation = %.2f, want 55.5", p.MaxElevation)
	}
	if !p.MaxElevationTime.Equal(scanStart.Add(12 * time.Minute)) {
		t.Errorf("max elevation time = %v, want minute 12", p.MaxElevationTime)
	}
	if p.DurationMinutes != 4.0 {
		t.Errorf("duration = %.1f min, want 4.0", p.DurationMinutes)
	}
}

func TestScanMultiplePassesOrderedNonOverlapping(t *testing.T) {
	s := profileSampler(map[int]float64{
		5: 15, 6: 40, 7: 16,
		30: 20, 31: 62, 32: 61, 33: 12,
		50: 11,
	})

	records := scan(s, scanStart, scanStart.Add(time.Hour), time.Minute, 10, testLogger())
	if len(records) != 3 {
		t.Fatalf("expected 3 passes, got %d", len(records))
	}

	for i, p := range records {
		if p.MaxElevation < 10 {
			t.Errorf("pass %d: max elevation %.2f below threshold", i, p.MaxElevation)
		}
		if p.MaxElevationTime.Before(p.StartTime) || p.MaxElevationTime.After(p.EndTime) {
			t.Errorf("pass %d: max elevation time %v outside [%v, %v]", i, p.MaxElevationTime, p.StartTime, p.EndTime)
		}
		if p.DurationMinutes < 0 {
			t.Errorf("pass %d: negative duration %.1f", i, p.DurationMinutes)
		}
		wantDur := p.EndTime.Sub(p.StartTime).Minutes()
		if math.Abs(p.DurationMinutes-wantDur) > 0.05 {
			t.Errorf("pass %d: duration %.1f does not match end-start %.2f", i, p.DurationMinutes, wantDur)
		}
		if i > 0 && !records[i-1].EndTime.Before(p.StartTime) {
			t.Errorf("pass %d starts at %v, before previous ended at %v", i, p.StartTime, records[i-1].EndTime)
		}
	}
}

func TestScanTruncatesTrailingPass(t *testing.T) {
	// Still above threshold when the window closes at minute 10: the pass is
	// emitted, truncated at the last sampled instant.
	s := profileSampler(map[int]float64{
		7: 14, 8: 33, 9: 35, 10: 31, 11: 30, 12: 28,
	})

	records := scan(s, scanStart, scanStart.Add(10*time.Minute), time.Minute, 10, testLogger())
	if len(records) != 1 {
		t.Fatalf("expected 1 truncated pass, got %d", len(records))
	}

	p := records[0]
	if !p.StartTime.Equal(scanStart.Add(7 * time.Minute)) {
		t.Errorf("start = %v, want minute 7", p.StartTime)
	}
	if !p.EndTime.Equal(scanStart.Add(10 * time.Minute)) {
		t.Errorf("end = %v, want the window end (minute 10)", p.EndTime)
	}
	if !p.MaxElevationTime.Equal(scanStart.Add(9 * time.Minute)) {
		t.Errorf("max elevation time = %v, want minute 9", p.MaxElevationTime)
	}
}

func TestScanErrorSampleClosesPass(t *testing.T) {
	s := samplerFunc(func(t time.Time) (float64, error) {
		min := int(t.Sub(scanStart).Minutes())
		switch {
		case min == 3 || min == 4:
			return 25, nil
		case min == 5:
			return 0, fmt.Errorf("%w: synthetic failure", ErrPropagation)
		case min == 6:
			return 26, nil
		default:
			return -10, nil
		}
	})

	records := scan(s, scanStart, scanStart.Add(20*time.Minute), time.Minute, 10, testLogger())
	if len(records) != 2 {
		t.Fatalf("expected 2 passes split by the failed sample, got %d", len(records))
	}

	// The failed sample at minute 5 closes the first pass at minute 4.
	if !records[0].EndTime.Equal(scanStart.Add(4 * time.Minute)) {
		t.Errorf("first pass end = %v, want minute 4", records[0].EndTime)
	}
	if !records[1].StartTime.Equal(scanStart.Add(6 * time.Minute)) {
		t.Errorf("second pass start = %v, want minute 6", records[1].StartTime)
	}
}

func TestScanAllErrorsYieldsNoPasses(t *testing.T) {
	s := samplerFunc(func(t time.Time) (float64, error) {
		return 0, fmt.Errorf("%w: always failing", ErrPropagation)
	})

	records := scan(s, scanStart, scanStart.Add(time.Hour), time.Minute, 0, testLogger())
	if len(records) != 0 {
		t.Errorf("expected no passes, got %d", len(records))
	}
}

func TestScanIdempotent(t *testing.T) {
	s := profileSampler(map[int]float64{
		5: 15, 6: 40, 7: 16,
		30: 20, 31: 62, 32: 12,
	})

	a := scan(s, scanStart, scanStart.Add(time.Hour), time.Minute, 10, testLogger())
	b := scan(s, scanStart, scanStart.Add(time.Hour), time.Minute, 10, testLogger())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two scans of the same window differ:\n%v\n%v", a, b)
	}
}

func TestScanThresholdIsStrict(t *testing.T) {
	// Samples exactly at the threshold never open a pass.
	s := profileSampler(map[int]float64{3: 10, 4: 10, 5: 10})
	records := scan(s, scanStart, scanStart.Add(10*time.Minute), time.Minute, 10, testLogger())
	if len(records) != 0 {
		t.Errorf("expected no passes at exact threshold, got %d", len(records))
	}
}

func TestNextPass(t *testing.T) {
	if got := NextPass(nil, scanStart); got != nil {
		t.Errorf("NextPass(nil) = %v, want nil", got)
	}

	p := PassRecord{
		StartTime: scanStart.Add(45 * time.Minute),
		EndTime:   scanStart.Add(51 * time.Minute),
	}
	info := NextPass([]PassRecord{p}, scanStart)
	if info == nil {
		t.Fatal("NextPass returned nil for non-empty list")
	}
	if info.MinutesUntil != 45.0 {
		t.Errorf("MinutesUntil = %.1f, want 45.0", info.MinutesUntil)
	}
	if !info.Pass.StartTime.Equal(p.StartTime) {
		t.Errorf("Pass = %v, want first record", info.Pass)
	}

	// Summarizing after the pass began yields a negative countdown.
	late := NextPass([]PassRecord{p}, scanStart.Add(50*time.Minute))
	if late.MinutesUntil != -5.0 {
		t.Errorf("MinutesUntil = %.1f, want -5.0", late.MinutesUntil)
	}
}

// TestPassRecordJSONContract pins the serialized field names and formats that
// downstream consumers rely on.
func TestPassRecordJSONContract(t *testing.T) {
	p := PassRecord{
		StartTime:        time.Date(2025, 2, 14, 12, 10, 0, 0, time.UTC),
		EndTime:          time.Date(2025, 2, 14, 12, 16, 0, 0, time.UTC),
		MaxElevation:     55.52,
		MaxElevationTime: time.Date(2025, 2, 14, 12, 13, 0, 0, time.UTC),
		DurationMinutes:  6.0,
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, key := range []string{
		`"start_time":"2025-02-14T12:10:00Z"`,
		`"end_time":"2025-02-14T12:16:00Z"`,
		`"max_elevation":55.52`,
		`"max_elevation_time":"2025-02-14T12:13:00Z"`,
		`"duration_minutes":6`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("serialized record missing %s in %s", key, data)
		}
	}
}
