package passes

import (
	"fmt"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/propagation"
	"github.com/shivmishra76/sat-tracker-cli/internal/tle"
	"github.com/shivmishra76/sat-tracker-cli/internal/transform"
)

// Sampler answers a single question: how high above the observer's horizon is
// the satellite at instant t? The scanner depends only on this interface, so
// tests drive it with synthetic elevation profiles instead of real orbits.
type Sampler interface {
	ElevationAt(t time.Time) (float64, error)
}

// satSampler sequences the real geometry chain: SGP4 propagation, TEME→ECEF,
// ECEF→geodetic, geodetic→look angles.
type satSampler struct {
	prop *propagation.SGP4
	obs  transform.ObserverPosition
}

// NewSampler builds the production Sampler for an element set and observer.
func NewSampler(entry tle.TLEEntry, obs transform.ObserverPosition) (Sampler, error) {
	prop, err := propagation.NewSGP4(entry.Line1, entry.Line2, entry.NORADID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	return &satSampler{prop: prop, obs: obs}, nil
}

func (s *satSampler) ElevationAt(t time.Time) (float64, error) {
	teme, err := s.prop.PositionAt(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPropagation, err)
	}
	ecef := transform.TEMEToECEF(teme, t)
	geo := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)
	la := transform.GeodeticLookAngles(s.obs, geo)
	return la.ElevationDeg, nil
}
