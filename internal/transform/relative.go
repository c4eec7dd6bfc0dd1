package transform

import (
	"math"
	"time"

	"github.com/star/orrery/internal/units"
)

// SpeedOfLightKmS is the speed of light in km/s.
const SpeedOfLightKmS = 299792.458

// Relation holds the geometry of a target as seen from an observer body.
type Relation struct {
	Range          units.Kilometers
	LightTime      time.Duration // one-way
	EclipticLonDeg float64       // [0, 360), measured from +x
	EclipticLatDeg float64       // -90 (south) to +90 (north)
}

// Relative computes range, one-way light time and direction from observer to
// target, both given in the heliocentric frame. Coincident positions yield a
// zero Relation.
func Relative(observer, target units.VecKm) Relation {
	d := target.Sub(observer)
	rng := d.Norm()
	if rng == 0 {
		return Relation{}
	}

	lon := math.Atan2(float64(d.Y), float64(d.X))
	if lon < 0 {
		lon += 2 * math.Pi
	}
	lat := math.Asin(float64(d.Z / rng))

	return Relation{
		Range:          rng,
		LightTime:      LightTime(rng),
		EclipticLonDeg: lon * 180.0 / math.Pi,
		EclipticLatDeg: lat * 180.0 / math.Pi,
	}
}

// LightTime returns the time light needs to cross d.
func LightTime(d units.Kilometers) time.Duration {
	seconds := float64(d) / SpeedOfLightKmS
	return time.Duration(seconds * float64(time.Second))
}
