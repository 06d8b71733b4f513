// Package propagation wraps the SGP4 orbital model behind a small, typed API.
//
// SGP4 library choice: github.com/joshuaferrara/go-satellite — pure Go (no
// CGO), widest community adoption, explicit TEME output.
//
// The library's Propagate() takes Satellite by value, so its internal error
// codes never reach the caller. Propagation failures are detected instead by
// checking the output for NaN/Inf and implausible position magnitudes, and
// surfaced as errors rather than passed on as stale coordinates.
package propagation

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/shivmishra76/sat-tracker-cli/internal/transform"
)

// SGP4 propagates a single satellite's two-line element set.
type SGP4 struct {
	sat     satellite.Satellite
	noradID int
}

// NewSGP4 initializes the SGP4 model from TLE lines. Returns an error if the
// TLE cannot be parsed or the model fails to initialize.
//
// The lines are pre-validated because go-satellite calls log.Fatal on
// malformed input, which would kill the process.
func NewSGP4(line1, line2 string, noradID int) (*SGP4, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &SGP4{sat: sat, noradID: noradID}, nil
}

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// PositionAt computes the satellite state at the given instant.
// Returns position and velocity in the TEME frame (km, km/s), or an error if
// the propagation produced non-physical output.
func (p *SGP4) PositionAt(t time.Time) (transform.PositionTEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", p.noradID)
	}

	// Position magnitude for anything in Earth orbit sits between ~6200km
	// (just below LEO) and ~50000km (past GEO).
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", p.noradID, mag)
	}

	return transform.PositionTEME{
		X:  pos.X,
		Y:  pos.Y,
		Z:  pos.Z,
		VX: vel.X,
		VY: vel.Y,
		VZ: vel.Z,
	}, nil
}

// GroundTrack is the satellite's geodetic subpoint plus its orbital speed.
type GroundTrack struct {
	Point    transform.GeodeticPoint
	SpeedKms float64
}

// GroundTrackAt computes the geodetic subpoint and speed at the given instant.
func (p *SGP4) GroundTrackAt(t time.Time) (GroundTrack, error) {
	teme, err := p.PositionAt(t)
	if err != nil {
		return GroundTrack{}, err
	}
	ecef := transform.TEMEToECEF(teme, t)
	return GroundTrack{
		Point:    transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z),
		SpeedKms: teme.SpeedKms(),
	}, nil
}
