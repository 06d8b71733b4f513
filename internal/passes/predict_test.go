package passes

import (
	"errors"
	"testing"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/tle"
	"github.com/shivmishra76/sat-tracker-cli/internal/transform"
)

// Real ISS TLE (epoch Feb 2025, valid for testing pass geometry).
var issEntry = tle.TLEEntry{
	NORADID: 25544,
	Name:    "ISS (ZARYA)",
	Line1:   "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993",
	Line2:   "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058",
	Epoch:   time.Date(2025, 2, 14, 4, 19, 40, 0, time.UTC),
}

var nycObserver = transform.NewObserverPosition(40.7128, -74.006, 10)

func TestPredictISS(t *testing.T) {
	req := Request{
		Entry:        issEntry,
		Observer:     nycObserver,
		Start:        time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC),
		HorizonHours: 24,
		MinElevation: 0,
	}

	records, err := Predict(req, testLogger())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	// ISS in LEO passes over NYC several times a day.
	if len(records) == 0 {
		t.Fatal("expected at least 1 ISS pass over NYC in 24h")
	}
	// At most one pass per orbit: ~15.5 orbits per day.
	if len(records) > 16 {
		t.Errorf("found %d passes, more than orbits per day", len(records))
	}

	for i, p := range records {
		if p.MaxElevation < req.MinElevation {
			t.Errorf("pass %d: max elevation %.2f below threshold", i, p.MaxElevation)
		}
		if p.MaxElevation > 90 {
			t.Errorf("pass %d: max elevation %.2f exceeds 90 degrees", i, p.MaxElevation)
		}
		if p.MaxElevationTime.Before(p.StartTime) || p.MaxElevationTime.After(p.EndTime) {
			t.Errorf("pass %d: max elevation time %v outside pass [%v, %v]",
				i, p.MaxElevationTime, p.StartTime, p.EndTime)
		}
		// LEO passes are minutes, not hours.
		if p.DurationMinutes < 0 || p.DurationMinutes > 20 {
			t.Errorf("pass %d: duration %.1f min outside LEO range", i, p.DurationMinutes)
		}
		if i > 0 && !records[i-1].EndTime.Before(p.StartTime) {
			t.Errorf("pass %d overlaps previous: %v vs %v", i, p.StartTime, records[i-1].EndTime)
		}

		t.Logf("pass %d: start=%v maxEl=%.1f° dur=%.1f min",
			i, p.StartTime.Format(time.RFC3339), p.MaxElevation, p.DurationMinutes)
	}
}

func TestPredictZenithThresholdYieldsNoPasses(t *testing.T) {
	req := Request{
		Entry:        issEntry,
		Observer:     nycObserver,
		Start:        time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC),
		HorizonHours: 24,
		MinElevation: 90,
	}

	records, err := Predict(req, testLogger())
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no passes at 90° threshold, got %d", len(records))
	}
}

func TestPredictHigherThresholdFindsFewerPasses(t *testing.T) {
	base := Request{
		Entry:        issEntry,
		Observer:     nycObserver,
		Start:        time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC),
		HorizonHours: 48,
	}

	low := base
	low.MinElevation = 0
	high := base
	high.MinElevation = 45

	lowRecords, err := Predict(low, testLogger())
	if err != nil {
		t.Fatalf("Predict(0°) failed: %v", err)
	}
	highRecords, err := Predict(high, testLogger())
	if err != nil {
		t.Fatalf("Predict(45°) failed: %v", err)
	}

	if len(lowRecords) == 0 {
		t.Fatal("expected passes with min elevation 0")
	}
	if len(highRecords) >= len(lowRecords) {
		t.Errorf("45° threshold found %d passes, 0° found %d — higher threshold should find fewer",
			len(highRecords), len(lowRecords))
	}
}

func TestPredictValidation(t *testing.T) {
	valid := Request{
		Entry:        issEntry,
		Observer:     nycObserver,
		Start:        time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC),
		HorizonHours: 24,
		MinElevation: 10,
	}

	tooSteep := valid
	tooSteep.MinElevation = 91
	if _, err := Predict(tooSteep, testLogger()); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("min elevation 91: error = %v, want ErrInvalidThreshold", err)
	}

	tooShallow := valid
	tooShallow.MinElevation = -91
	if _, err := Predict(tooShallow, testLogger()); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("min elevation -91: error = %v, want ErrInvalidThreshold", err)
	}

	noWindow := valid
	noWindow.HorizonHours = 0
	if _, err := Predict(noWindow, testLogger()); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("zero horizon: error = %v, want ErrEmptyWindow", err)
	}

	badElements := valid
	badElements.Entry = tle.TLEEntry{
		NORADID: 25544,
		Line1:   issEntry.Line1,
		Line2:   "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 00.00000000495058",
	}
	if _, err := Predict(badElements, testLogger()); !errors.Is(err, ErrInvalidElements) {
		t.Errorf("zero mean motion: error = %v, want ErrInvalidElements", err)
	}
}

func TestPredictIdempotent(t *testing.T) {
	req := Request{
		Entry:        issEntry,
		Observer:     nycObserver,
		Start:        time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC),
		HorizonHours: 24,
		MinElevation: 0,
	}

	a, err := Predict(req, testLogger())
	if err != nil {
		t.Fatalf("first Predict failed: %v", err)
	}
	b, err := Predict(req, testLogger())
	if err != nil {
		t.Fatalf("second Predict failed: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("pass counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("pass %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
