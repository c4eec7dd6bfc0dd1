package transform

import (
	"math"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/units"
)

// SpinAngle returns the rotation angle of a body's prime meridian at jd,
// in [0, 2π). Earth uses Greenwich mean sidereal time; other bodies turn
// uniformly from zero at J2000 according to their rotation period and
// direction. Bodies without a rotation period do not spin.
func SpinAngle(id catalog.BodyID, jd units.JulianDay) units.Radians {
	if id == catalog.Earth {
		return GMST(jd)
	}

	b := catalog.Get(id)
	if b.RotationPeriodH <= 0 {
		return 0
	}

	dir := 1.0
	if b.RotationDirection < 0 {
		dir = -1.0
	}

	turns := float64(jd.Sub(units.J2000)) * 24.0 / b.RotationPeriodH
	// Keep only the fractional turn so far-future dates lose no precision in
	// the multiplication by 2π.
	_, frac := math.Modf(turns)
	return units.Radians(dir * frac * 2 * math.Pi).Normalize()
}
