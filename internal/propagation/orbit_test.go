package propagation

import (
	"math"
	"testing"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/transform"
)

func TestPathResolution(t *testing.T) {
	tests := []struct {
		q     Quality
		ratio float64
		want  int
	}{
		{QualityLow, 1, 64},
		{QualityMedium, 1, 128},
		{QualityHigh, 1, 256},
		{QualityHigh, 2, 512},
		{QualityMedium, 1.5, 192},
		{QualityLow, 0.25, 32},
		{QualityLow, 0, 64},
		{QualityMedium, math.NaN(), 128},
		{Quality(9), 1, 128},
	}
	for _, tt := range tests {
		if got := PathResolution(tt.q, tt.ratio); got != tt.want {
			t.Errorf("PathResolution(%v, %v) = %d, want %d", tt.q, tt.ratio, got, tt.want)
		}
	}
}

func TestParseQuality(t *testing.T) {
	for in, want := range map[string]Quality{"": QualityMedium, "LOW": QualityLow, " high ": QualityHigh, "medium": QualityMedium} {
		got, err := ParseQuality(in)
		if err != nil || got != want {
			t.Errorf("ParseQuality(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseQuality("ultra"); err == nil {
		t.Error("expected error for unknown quality")
	}
}

func TestOrbitPath(t *testing.T) {
	if path := OrbitPathFor(catalog.Sun, QualityHigh, 1); path != nil {
		t.Errorf("sun path has %d points, want none", len(path))
	}

	for _, id := range catalog.All() {
		el := catalog.ElementsOf(id)
		if el.Fixed() {
			continue
		}
		path := OrbitPathFor(id, QualityLow, 1)
		if len(path) != 65 {
			t.Fatalf("%s: %d points, want 65", id, len(path))
		}
		if path[0] != path[len(path)-1] {
			t.Errorf("%s: path not closed", id)
		}
		for i, p := range path {
			if !transform.ValidateHeliocentric(el, p.Km(), 1e-9) {
				t.Errorf("%s point %d: |r| = %.6f AU outside orbit", id, i, p.Norm())
			}
		}
		// The first point is perihelion.
		if math.Abs(float64(path[0].Norm()-el.Perihelion())) > 1e-12 {
			t.Errorf("%s: first point |r| = %.9f, want perihelion %.9f", id, path[0].Norm(), el.Perihelion())
		}
	}
}

func TestOrbitPathFloor(t *testing.T) {
	path := OrbitPath(catalog.ElementsOf(catalog.Mars), 4)
	if len(path) != MinPathPoints+1 {
		t.Errorf("got %d points, want %d", len(path), MinPathPoints+1)
	}
}
