// Package units defines the tagged numeric types shared by the ephemeris core.
//
// Every distance, angle and time value carries its unit in its type so that a
// conversion can only be applied through the functions in this package. Mixing
// kilometers with astronomical units or render units is a compile error.
package units

import "math"

// KmPerAU is the IAU 2012 astronomical unit in kilometers.
const KmPerAU = 149597870.7

// J2000 is the Julian Day of the J2000.0 epoch (2000-01-01 12:00 TT).
const J2000 JulianDay = 2451545.0

// Kilometers is a distance in kilometers.
type Kilometers float64

// AU is a distance in astronomical units.
type AU float64

// RenderUnits is a distance in the renderer's scene units.
type RenderUnits float64

// Radians is an angle in radians.
type Radians float64

// Days is a duration in days.
type Days float64

// JulianDay is an instant on the continuous Julian day axis.
type JulianDay float64

// Km converts astronomical units to kilometers.
func (a AU) Km() Kilometers { return Kilometers(float64(a) * KmPerAU) }

// AU converts kilometers to astronomical units.
func (k Kilometers) AU() AU { return AU(float64(k) / KmPerAU) }

// Add returns jd shifted by d.
func (jd JulianDay) Add(d Days) JulianDay { return jd + JulianDay(d) }

// Sub returns the signed number of days from other to jd.
func (jd JulianDay) Sub(other JulianDay) Days { return Days(jd - other) }

// Degrees converts r to degrees.
func (r Radians) Degrees() float64 { return float64(r) * 180.0 / math.Pi }

// FromDegrees converts degrees to radians.
func FromDegrees(deg float64) Radians { return Radians(deg * math.Pi / 180.0) }

// Normalize wraps r into [0, 2π).
func (r Radians) Normalize() Radians {
	w := math.Mod(float64(r), 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	return Radians(w)
}
