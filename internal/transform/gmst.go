package transform

import (
	"math"

	"github.com/star/orrery/internal/units"
)

// GMST returns Greenwich mean sidereal time at jd (UT1) as an angle in
// [0, 2π), using the IAU 1982 expression in degrees (Meeus eq. 12.4):
//
//	θ = 280.46061837° + 360.98564736629°·d + 0.000387933°·T² - T³/38710000°
//
// with d days and T Julian centuries since J2000.0.
func GMST(jd units.JulianDay) units.Radians {
	d := float64(jd.Sub(units.J2000))
	t := d / 36525.0

	// Whole turns per day drop out; only the fractional day keeps its 360°.
	_, frac := math.Modf(d)
	deg := 280.46061837 +
		360.0*frac +
		0.98564736629*d +
		t*t*(0.000387933-t/38710000.0)

	return units.Radians(deg * math.Pi / 180.0).Normalize()
}
