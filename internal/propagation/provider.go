package propagation

import (
	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

// EphemerisProvider answers "where is body X at time T". Implementations must
// be safe for concurrent use.
type EphemerisProvider interface {
	State(id catalog.BodyID, jd units.JulianDay) StateVector
}

// KeplerProvider evaluates the catalog's fixed J2000 elements with two-body
// Keplerian motion. The zero value is ready to use.
type KeplerProvider struct{}

// NewKeplerProvider returns the Keplerian ephemeris provider.
func NewKeplerProvider() KeplerProvider {
	return KeplerProvider{}
}

// State returns the heliocentric position of id at jd. The central body is
// pinned to the origin.
func (KeplerProvider) State(id catalog.BodyID, jd units.JulianDay) StateVector {
	el := catalog.ElementsOf(id)
	if el.Fixed() {
		return StateVector{}
	}
	return StateVector{Position: transform.KeplerianToCartesian(el, jd)}
}
