package passes

import (
	"fmt"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/tle"
)

const minutesPerDay = 24 * 60

// EstimatePeriod derives the orbital period in minutes from the element set's
// mean motion (revolutions per day). A mean motion that is unparseable or not
// positive fails with ErrInvalidElements.
func EstimatePeriod(entry tle.TLEEntry) (float64, error) {
	mm, err := entry.MeanMotion()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	if mm <= 0 {
		return 0, fmt.Errorf("%w: mean motion %.8f rev/day", ErrInvalidElements, mm)
	}
	return minutesPerDay / mm, nil
}

// StepSize returns the scan step for a given orbital period: period/60, so
// each revolution gets at least 60 samples, floored at one minute to bound
// the total sample count for fast orbits.
func StepSize(periodMinutes float64) time.Duration {
	stepMinutes := periodMinutes / 60
	if stepMinutes < 1 {
		stepMinutes = 1
	}
	return time.Duration(stepMinutes * float64(time.Minute))
}
