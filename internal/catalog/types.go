package catalog

import (
	"github.com/star/orrery/internal/kepler"
	"github.com/star/orrery/internal/units"
)

// Elements holds the classical Keplerian elements of one orbit, valid near Epoch.
// A zero SemiMajorAxis marks a body fixed at the origin.
type Elements struct {
	SemiMajorAxis      units.AU
	Eccentricity       float64 // [0, 1)
	Inclination        units.Radians
	AscendingNode      units.Radians
	PeriapsisArg       units.Radians
	MeanAnomalyAtEpoch units.Radians
	Epoch              units.JulianDay
}

// Fixed reports whether the body sits at the origin and does not orbit.
func (e Elements) Fixed() bool {
	return e.SemiMajorAxis == 0
}

// PeriodDays returns the orbital period implied by the semi-major axis
// (kepler.PeriodDays). Zero for a fixed body.
func (e Elements) PeriodDays() units.Days {
	if e.Fixed() {
		return 0
	}
	return kepler.PeriodDays(e.SemiMajorAxis)
}

// Perihelion returns the closest distance to the origin, a(1-e).
func (e Elements) Perihelion() units.AU {
	return units.AU(float64(e.SemiMajorAxis) * (1 - e.Eccentricity))
}

// Aphelion returns the farthest distance from the origin, a(1+e).
func (e Elements) Aphelion() units.AU {
	return units.AU(float64(e.SemiMajorAxis) * (1 + e.Eccentricity))
}

// Temperature is a temperature range in kelvin.
type Temperature struct {
	Min  float64
	Max  float64
	Mean float64
}

// Body is the display record of a cataloged body. None of these fields feed
// the orbital computation.
type Body struct {
	ID       BodyID
	Name     string
	RadiusKm units.Kilometers
	MassKg   float64
	Color    string // #RRGGBB
	Parent   BodyID
	HasAtmos bool

	Density           float64 // kg/m³
	Gravity           float64 // m/s²
	EscapeVelocity    float64 // km/s
	RotationPeriodH   float64 // hours
	RotationDirection int     // +1 prograde, -1 retrograde
	OrbitalPeriodDays float64
	Temperature       *Temperature
	Atmosphere        []string
	Moons             int
	DiscoveryYear     int // negative for antiquity
	DiscoveredBy      string
}
