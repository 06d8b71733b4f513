package tle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TLEEntry is a single satellite's two-line element set.
type TLEEntry struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// MeanMotion returns the mean motion in revolutions per day, extracted from
// the fixed-width field in line 2 (columns 53-63).
func (e TLEEntry) MeanMotion() (float64, error) {
	if len(e.Line2) < 63 {
		return 0, fmt.Errorf("line2 too short for mean motion field: %d chars", len(e.Line2))
	}
	field := strings.TrimSpace(e.Line2[52:63])
	mm, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing mean motion %q: %w", field, err)
	}
	return mm, nil
}

// EpochRange is the minimum and maximum element epochs in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// TLEDataset is a complete set of TLE data from a single source fetch.
type TLEDataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Satellites []TLEEntry
}

// NewDataset builds a TLEDataset from parsed entries, computing the epoch range.
func NewDataset(source string, fetchedAt time.Time, entries []TLEEntry) *TLEDataset {
	ds := &TLEDataset{
		Source:     source,
		FetchedAt:  fetchedAt,
		Satellites: entries,
	}
	for i, e := range entries {
		if i == 0 || e.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = e.Epoch
		}
		if i == 0 || e.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = e.Epoch
		}
	}
	return ds
}
