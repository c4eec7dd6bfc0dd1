// Package kepler solves Kepler's equation and derives the anomalies and mean
// motion used by the ephemeris transform.
package kepler

import (
	"math"

	"github.com/star/orrery/internal/units"
)

const (
	// MaxIterations bounds the Newton-Raphson loop.
	MaxIterations = 10

	// Tolerance is the step size (radians) below which iteration stops.
	Tolerance = 1e-8

	// DaysPerYear is the Julian year used to derive mean motion from the
	// semi-major axis.
	DaysPerYear = 365.25
)

// SolveEccentricAnomaly solves E - e·sin(E) = M for E by Newton-Raphson,
// seeded with E = M. M need not be normalized; eccentricity must be in [0, 1).
//
// The loop runs at most MaxIterations steps and stops early once a step is
// smaller than Tolerance. It always terminates and returns the last estimate,
// converged or not.
func SolveEccentricAnomaly(meanAnomaly units.Radians, eccentricity float64) units.Radians {
	m := float64(meanAnomaly)
	e := m
	for i := 0; i < MaxIterations; i++ {
		dE := (e - eccentricity*math.Sin(e) - m) / (1 - eccentricity*math.Cos(e))
		e -= dE
		if math.Abs(dE) < Tolerance {
			break
		}
	}
	return units.Radians(e)
}

// TrueAnomaly converts an eccentric anomaly to the true anomaly using the
// half-angle form, which keeps the quadrant without normalisation.
func TrueAnomaly(eccentricAnomaly units.Radians, eccentricity float64) units.Radians {
	half := float64(eccentricAnomaly) / 2
	return units.Radians(2 * math.Atan2(
		math.Sqrt(1+eccentricity)*math.Sin(half),
		math.Sqrt(1-eccentricity)*math.Cos(half),
	))
}

// MeanMotion returns the mean motion in radians per day for an orbit of
// semi-major axis a around a solar-mass body: sqrt(1/a³)·2π/365.25.
// a must be positive.
func MeanMotion(a units.AU) float64 {
	af := float64(a)
	return math.Sqrt(1/(af*af*af)) * 2 * math.Pi / DaysPerYear
}

// PeriodDays returns the orbital period 365.25·a^1.5 days, the full turn of
// MeanMotion.
func PeriodDays(a units.AU) units.Days {
	return units.Days(DaysPerYear * math.Pow(float64(a), 1.5))
}

// MeanAnomalyAt advances the mean anomaly at epoch to jd.
func MeanAnomalyAt(m0 units.Radians, a units.AU, epoch, jd units.JulianDay) units.Radians {
	return m0 + units.Radians(MeanMotion(a)*float64(jd.Sub(epoch)))
}
