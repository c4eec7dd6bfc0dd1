package propagation

import (
	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/units"
)

// StateVector is a body's heliocentric state. Velocity is reserved for
// providers that compute it; the Keplerian provider leaves it nil.
type StateVector struct {
	Position units.VecKm
	Velocity *units.VecKm
}

// Keyframe holds the positions of all bodies at a single Julian day.
type Keyframe struct {
	JD     units.JulianDay
	Bodies []BodyState
}

// Body returns the state of id within the keyframe.
func (k *Keyframe) Body(id catalog.BodyID) (BodyState, bool) {
	for _, b := range k.Bodies {
		if b.ID == id {
			return b, true
		}
	}
	return BodyState{}, false
}

// BodyState holds a single body's heliocentric position at a keyframe time.
type BodyState struct {
	ID       catalog.BodyID
	Position units.VecKm   // km, heliocentric ecliptic
	Spin     units.Radians // prime meridian angle
}

// PropConfig holds propagation configuration.
type PropConfig struct {
	Workers int        // Worker pool size (default: runtime.NumCPU())
	Step    units.Days // Keyframe interval in simulated days (default: 1)
	Horizon units.Days // Propagation horizon in simulated days (default: 30)
}
