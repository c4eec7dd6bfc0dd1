package catalog

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var bodyColors [numBodies]colorful.Color

func init() {
	for i, b := range bodyTable {
		c, err := colorful.Hex(b.Color)
		if err != nil {
			panic(fmt.Sprintf("catalog: bad color %q for %s: %v", b.Color, bodyNames[i], err))
		}
		bodyColors[i] = c
	}
}

// ColorOf returns the display colour of id.
func ColorOf(id BodyID) colorful.Color {
	if !id.Valid() {
		panic(fmt.Sprintf("catalog: unknown body %d", uint8(id)))
	}
	return bodyColors[id]
}

// RGB returns the display colour of id as 8-bit components.
func RGB(id BodyID) [3]uint8 {
	r, g, b := ColorOf(id).RGB255()
	return [3]uint8{r, g, b}
}

// OrbitColor returns a dimmed variant of the body colour for orbit lines,
// blended towards black in Lab space.
func OrbitColor(id BodyID, opacity float64) colorful.Color {
	return colorful.Color{}.BlendLab(ColorOf(id), opacity).Clamped()
}
