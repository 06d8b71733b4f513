package propagation

import (
	"math"
	"testing"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/transform"
)

// Real ISS elements (epoch Feb 2025).
const (
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"
)

func TestPositionAt(t *testing.T) {
	prop, err := NewSGP4(issLine1, issLine2, 25544)
	if err != nil {
		t.Fatalf("NewSGP4 failed: %v", err)
	}

	target := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	teme, err := prop.PositionAt(target)
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}

	// ISS orbits at ~420km altitude: radius ~6791 km.
	mag := math.Sqrt(teme.X*teme.X + teme.Y*teme.Y + teme.Z*teme.Z)
	if mag < 6500 || mag > 7000 {
		t.Errorf("TEME position magnitude = %.1f km, expected ~6791 km", mag)
	}

	// Orbital speed in LEO is ~7.7 km/s.
	speed := teme.SpeedKms()
	if speed < 7.0 || speed > 8.5 {
		t.Errorf("speed = %.2f km/s, expected ~7.7 km/s", speed)
	}

	ecef := transform.TEMEToECEF(teme, target)
	if !transform.ValidateECEF(ecef) {
		t.Errorf("ECEF position failed validation: [%.1f, %.1f, %.1f] m", ecef.X, ecef.Y, ecef.Z)
	}
}

func TestNewSGP4InvalidTLE(t *testing.T) {
	tests := []struct {
		name   string
		line1  string
		line2  string
	}{
		{"garbage", "invalid line 1", "invalid line 2"},
		{"wrong length", "1 25544U", "2 25544"},
		{"swapped prefixes", issLine2, issLine1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSGP4(tt.line1, tt.line2, 99999); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPositionAtDeterministic(t *testing.T) {
	prop, err := NewSGP4(issLine1, issLine2, 25544)
	if err != nil {
		t.Fatalf("NewSGP4 failed: %v", err)
	}

	target := time.Date(2025, 2, 14, 18, 30, 0, 0, time.UTC)
	a, err := prop.PositionAt(target)
	if err != nil {
		t.Fatalf("first PositionAt failed: %v", err)
	}
	b, err := prop.PositionAt(target)
	if err != nil {
		t.Fatalf("second PositionAt failed: %v", err)
	}
	if a != b {
		t.Errorf("same instant produced different states: %+v vs %+v", a, b)
	}
}
