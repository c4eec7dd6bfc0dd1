// Package transform provides the coordinate transformations for body positions.
//
// The primary transform takes Keplerian elements and a Julian day to a
// heliocentric inertial position: solve Kepler's equation, place the body in
// its orbital plane, then rotate that plane into the reference frame by the
// argument of periapsis ω, the inclination i and the ascending node Ω:
//
//	r = R3(-Ω) · R1(-i) · R3(-ω) · [x_orb, y_orb, 0]
//
// The combined matrix is written out in closed form; only its first two
// columns are needed because the orbital-plane z component is zero.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 2.
package transform

import (
	"math"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/kepler"
	"github.com/star/orrery/internal/units"
)

// KeplerianToCartesian returns the position of an orbiting body at jd in
// kilometers, heliocentric inertial frame. el must not be Fixed: the mean
// motion of a zero semi-major axis is undefined.
func KeplerianToCartesian(el catalog.Elements, jd units.JulianDay) units.VecKm {
	m := kepler.MeanAnomalyAt(el.MeanAnomalyAtEpoch, el.SemiMajorAxis, el.Epoch, jd)
	return PositionAtMeanAnomaly(el, m).Km()
}

// PositionAtMeanAnomaly places the body at mean anomaly m on the orbit
// described by el, in astronomical units.
func PositionAtMeanAnomaly(el catalog.Elements, m units.Radians) units.VecAU {
	e := el.Eccentricity
	E := kepler.SolveEccentricAnomaly(m, e)
	nu := float64(kepler.TrueAnomaly(E, e))

	r := float64(el.SemiMajorAxis) * (1 - e*math.Cos(float64(E)))
	xOrb := r * math.Cos(nu)
	yOrb := r * math.Sin(nu)

	return OrbitalPlaneToInertial(el, xOrb, yOrb)
}

// OrbitalPlaneToInertial rotates orbital-plane coordinates (AU, periapsis on
// +x) into the reference frame.
func OrbitalPlaneToInertial(el catalog.Elements, xOrb, yOrb float64) units.VecAU {
	sinO, cosO := math.Sincos(float64(el.AscendingNode))
	sinI, cosI := math.Sincos(float64(el.Inclination))
	sinW, cosW := math.Sincos(float64(el.PeriapsisArg))

	x := (cosO*cosW-sinO*sinW*cosI)*xOrb + (-cosO*sinW-sinO*cosW*cosI)*yOrb
	y := (sinO*cosW+cosO*sinW*cosI)*xOrb + (-sinO*sinW+cosO*cosW*cosI)*yOrb
	z := sinW*sinI*xOrb + cosW*sinI*yOrb

	return units.VecAU{X: units.AU(x), Y: units.AU(y), Z: units.AU(z)}
}

// ValidateHeliocentric checks that pos is finite and lies within the orbit's
// perihelion/aphelion shell, with a relative slack for solver tolerance.
func ValidateHeliocentric(el catalog.Elements, pos units.VecKm, slack float64) bool {
	if !pos.Finite() {
		return false
	}
	r := float64(pos.Norm())
	lo := float64(el.Perihelion().Km()) * (1 - slack)
	hi := float64(el.Aphelion().Km()) * (1 + slack)
	return r >= lo && r <= hi
}
