package units

import "math"

// Scale converts physical distances into render units.
//
// One render unit is KmPerRenderUnit kilometers. Body radii and orbital
// distances are exaggerated independently: radii are multiplied by
// RadiusFactor and floored at MinRadius so small bodies stay visible, while
// distances are multiplied by DistanceFactor.
type Scale struct {
	KmPerRenderUnit float64
	RadiusFactor    float64
	DistanceFactor  float64
	MinRadius       RenderUnits
}

// DefaultScale returns the scale used by the viewer: 1 render unit = 1e6 km,
// radii ×100 with a 0.5 unit floor, distances ×0.1.
func DefaultScale() Scale {
	return Scale{
		KmPerRenderUnit: 1e6,
		RadiusFactor:    100,
		DistanceFactor:  0.1,
		MinRadius:       0.5,
	}
}

// KmToRender converts kilometers to unscaled render units.
func (s Scale) KmToRender(km Kilometers) RenderUnits {
	return RenderUnits(float64(km) / s.KmPerRenderUnit)
}

// AUToRender converts astronomical units to unscaled render units.
func (s Scale) AUToRender(au AU) RenderUnits {
	return s.KmToRender(au.Km())
}

// Radius returns the rendered radius of a body of the given physical radius.
// The result is never below MinRadius.
func (s Scale) Radius(radius Kilometers) RenderUnits {
	scaled := float64(s.KmToRender(radius)) * s.RadiusFactor
	return RenderUnits(math.Max(float64(s.MinRadius), scaled))
}

// Distance returns the rendered length of a physical distance.
func (s Scale) Distance(d Kilometers) RenderUnits {
	return RenderUnits(float64(s.KmToRender(d)) * s.DistanceFactor)
}
