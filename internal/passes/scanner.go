package passes

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Predict scans the prediction window for the requested satellite and returns
// passes ordered by start time. The scan is deterministic for a given request:
// the caller supplies the start instant and the same window always yields the
// same records.
func Predict(req Request, logger *slog.Logger) ([]PassRecord, error) {
	if req.MinElevation < -90 || req.MinElevation > 90 {
		return nil, fmt.Errorf("%w: %.2f degrees", ErrInvalidThreshold, req.MinElevation)
	}
	if req.HorizonHours <= 0 {
		return nil, fmt.Errorf("%w: horizon %.2f hours", ErrEmptyWindow, req.HorizonHours)
	}

	period, err := EstimatePeriod(req.Entry)
	if err != nil {
		return nil, err
	}

	sampler, err := NewSampler(req.Entry, req.Observer)
	if err != nil {
		return nil, err
	}

	start := req.Start.UTC()
	end := start.Add(time.Duration(req.HorizonHours * float64(time.Hour)))
	return scan(sampler, start, end, StepSize(period), req.MinElevation, logger), nil
}

// scan walks [start, end] at a fixed step and materializes contiguous
// above-threshold runs as PassRecords.
//
// Two states: outside a pass and inside one. A sample strictly above the
// threshold opens or extends a pass; a sample at or below it closes any open
// pass at t − step, the last instant known to still be above the threshold
// (an approximation of the crossing, not an exact solve).
//
// A sample that fails to propagate is logged and counted, then treated as
// below threshold — the scan keeps going, and an open pass closes rather
// than absorbing undefined geometry.
//
// A pass still open when the window ends is emitted truncated at the last
// sampled instant instead of being dropped.
func scan(s Sampler, start, end time.Time, step time.Duration, minElevation float64, logger *slog.Logger) []PassRecord {
	var (
		records    []PassRecord
		inPass     bool
		passStart  time.Time
		maxEl      = math.Inf(-1)
		maxElTime  time.Time
		badSamples int
		t          time.Time
	)

	for t = start; !t.After(end); t = t.Add(step) {
		el, err := s.ElevationAt(t)
		if err != nil {
			badSamples++
			logger.Warn("elevation sample failed, treating as below threshold",
				"time", t.Format(time.RFC3339),
				"error", err,
			)
			el = math.Inf(-1)
		}

		if el > minElevation {
			if !inPass {
				inPass = true
				passStart = t
				maxEl = el
				maxElTime = t
			} else if el > maxEl {
				maxEl = el
				maxElTime = t
			}
			continue
		}

		if inPass {
			records = append(records, closePass(passStart, t.Add(-step), maxEl, maxElTime))
			inPass = false
			maxEl = math.Inf(-1)
		}
	}

	if inPass {
		// t has stepped past end; back up to the last instant actually sampled.
		records = append(records, closePass(passStart, t.Add(-step), maxEl, maxElTime))
	}

	if badSamples > 0 {
		logger.Warn("scan finished with failed samples", "failed_samples", badSamples)
	}
	return records
}

func closePass(start, end time.Time, maxEl float64, maxElTime time.Time) PassRecord {
	return PassRecord{
		StartTime:        start,
		EndTime:          end,
		MaxElevation:     round2(maxEl),
		MaxElevationTime: maxElTime,
		DurationMinutes:  round1(end.Sub(start).Minutes()),
	}
}
