package units

import (
	"encoding/json"
	"math"
)

// VecKm is a position in kilometers.
type VecKm struct {
	X, Y, Z Kilometers
}

// VecAU is a position in astronomical units.
type VecAU struct {
	X, Y, Z AU
}

// VecRender is a position in render units.
type VecRender struct {
	X, Y, Z RenderUnits
}

// Norm returns the distance from the origin.
func (v VecKm) Norm() Kilometers {
	return Kilometers(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Sub returns v - o.
func (v VecKm) Sub(o VecKm) VecKm {
	return VecKm{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// AU converts v to astronomical units.
func (v VecKm) AU() VecAU {
	return VecAU{X: v.X.AU(), Y: v.Y.AU(), Z: v.Z.AU()}
}

// Array returns the components as a plain array, for wire encoding.
func (v VecKm) Array() [3]float64 {
	return [3]float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Finite reports whether no component is NaN or infinite.
func (v VecKm) Finite() bool {
	for _, c := range [3]float64{float64(v.X), float64(v.Y), float64(v.Z)} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Norm returns the distance from the origin.
func (v VecAU) Norm() AU {
	return AU(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Km converts v to kilometers.
func (v VecAU) Km() VecKm {
	return VecKm{X: v.X.Km(), Y: v.Y.Km(), Z: v.Z.Km()}
}

// Array returns the components as a plain array, for wire encoding.
func (v VecAU) Array() [3]float64 {
	return [3]float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Array returns the components as a plain array, for wire encoding.
func (v VecRender) Array() [3]float64 {
	return [3]float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

// MarshalJSON encodes the vector as [x, y, z].
func (v VecKm) MarshalJSON() ([]byte, error) { return json.Marshal(v.Array()) }

// MarshalJSON encodes the vector as [x, y, z].
func (v VecAU) MarshalJSON() ([]byte, error) { return json.Marshal(v.Array()) }

// MarshalJSON encodes the vector as [x, y, z].
func (v VecRender) MarshalJSON() ([]byte, error) { return json.Marshal(v.Array()) }
