package transform

import "github.com/star/orrery/internal/units"

// ToRenderFrame scales a heliocentric position into the renderer's Y-up frame:
// the ecliptic plane (x, y) maps to the scene's (x, z) and the ecliptic north
// pole to +y.
func ToRenderFrame(p units.VecKm, s units.Scale) units.VecRender {
	return units.VecRender{
		X: s.Distance(p.X),
		Y: s.Distance(p.Z),
		Z: s.Distance(p.Y),
	}
}

// PathToRenderFrame converts a sampled orbit in astronomical units.
func PathToRenderFrame(path []units.VecAU, s units.Scale) []units.VecRender {
	out := make([]units.VecRender, len(path))
	for i, p := range path {
		out[i] = ToRenderFrame(p.Km(), s)
	}
	return out
}
