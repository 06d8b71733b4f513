// Package transform provides the coordinate frame conversions needed to turn
// an SGP4 state vector into what an observer on the ground actually sees.
//
// SGP4 outputs positions in TEME (True Equator Mean Equinox). The chain here
// is TEME → ECEF (GMST-only rotation), ECEF → geodetic (Bowring), and
// geodetic → topocentric look angles (SEZ rotation per Vallado Section 4.4).
// The GMST-only rotation ignores polar motion and the equation of equinoxes,
// which costs ~50m at most — fine for visibility work.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// OmegaEarth is Earth's rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

// PositionTEME is a satellite state vector in the TEME frame.
type PositionTEME struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// PositionECEF is a satellite state vector in the ECEF frame.
type PositionECEF struct {
	X, Y, Z    float64 // meters
	VX, VY, VZ float64 // m/s
}

// SpeedKms returns the velocity magnitude in km/s.
func (p PositionTEME) SpeedKms() float64 {
	return math.Sqrt(p.VX*p.VX + p.VY*p.VY + p.VZ*p.VZ)
}

// TEMEToECEF rotates a TEME state vector into ECEF at time t.
// Input in km and km/s, output in meters and m/s.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST rotates TEME into ECEF using a precomputed GMST angle
// (radians). Position is a plain R3(θ) rotation; velocity additionally
// subtracts the ω × r term from Earth's rotation:
//
//	r_ECEF = R3(θ) r_TEME
//	v_ECEF = R3(θ) v_TEME − ω × r_ECEF
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x := teme.X*cosG + teme.Y*sinG
	y := -teme.X*sinG + teme.Y*cosG
	z := teme.Z

	vx := teme.VX*cosG + teme.VY*sinG
	vy := -teme.VX*sinG + teme.VY*cosG
	vz := teme.VZ

	// ω × r_ECEF = [-ω·y, ω·x, 0]
	vx += OmegaEarth * y
	vy -= OmegaEarth * x

	return PositionECEF{
		X:  x * 1000.0,
		Y:  y * 1000.0,
		Z:  z * 1000.0,
		VX: vx * 1000.0,
		VY: vy * 1000.0,
		VZ: vz * 1000.0,
	}
}

// ValidateECEF reports whether an ECEF position is physically plausible for
// an Earth-orbiting satellite: finite, and with a magnitude between low
// orbit and a generous high-orbit bound.
func ValidateECEF(pos PositionECEF) bool {
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) {
		return false
	}
	if math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return false
	}

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)

	const minRadius = 6200.0 * 1000.0  // below any stable orbit
	const maxRadius = 50000.0 * 1000.0 // well past GEO

	return mag >= minRadius && mag <= maxRadius
}
