// Package passes predicts when a satellite is observable from a ground
// station: it scans a prediction window at a period-derived step, tracks
// rise/set crossings of a minimum-elevation threshold, and emits one record
// per contiguous above-threshold run.
package passes

import (
	"errors"
	"math"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/tle"
	"github.com/shivmishra76/sat-tracker-cli/internal/transform"
)

var (
	// ErrInvalidElements is returned when the element set cannot yield a
	// positive mean motion.
	ErrInvalidElements = errors.New("invalid orbital elements")

	// ErrPropagation marks a single-sample propagation failure.
	ErrPropagation = errors.New("propagation failed")

	// ErrInvalidThreshold is returned for a minimum elevation outside [-90, 90].
	ErrInvalidThreshold = errors.New("minimum elevation out of range")

	// ErrEmptyWindow is returned for a non-positive prediction horizon.
	ErrEmptyWindow = errors.New("empty prediction window")
)

// PassRecord is one observation window. The JSON field names and rounding are
// a fixed contract for downstream consumers.
type PassRecord struct {
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	MaxElevation     float64   `json:"max_elevation"`
	MaxElevationTime time.Time `json:"max_elevation_time"`
	DurationMinutes  float64   `json:"duration_minutes"`
}

// NextPassInfo summarizes the first upcoming pass.
type NextPassInfo struct {
	MinutesUntil float64    `json:"time_to_next_pass_minutes"`
	Pass         PassRecord `json:"next_pass"`
}

// Request holds the parameters for one pass prediction.
// Start doubles as the reference instant for the whole prediction: the scan
// begins there and NextPass countdowns are computed against it, so callers
// inject their clock instead of the scan reading wall time.
type Request struct {
	Entry        tle.TLEEntry
	Observer     transform.ObserverPosition
	Start        time.Time
	HorizonHours float64
	MinElevation float64 // degrees
}

// NextPass reduces a pass list to the time until the first pass begins,
// measured from now in minutes (1 decimal). Returns nil for an empty list.
// A zero or negative MinutesUntil means the pass is already in progress.
func NextPass(records []PassRecord, now time.Time) *NextPassInfo {
	if len(records) == 0 {
		return nil
	}
	return &NextPassInfo{
		MinutesUntil: round1(records[0].StartTime.Sub(now).Minutes()),
		Pass:         records[0],
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
