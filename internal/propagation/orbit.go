package propagation

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

// Quality selects the orbit path sampling density.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
)

// MinPathPoints is the lower bound on orbit path resolution.
const MinPathPoints = 32

var qualityNames = [...]string{"low", "medium", "high"}
var qualityBase = [...]int{64, 128, 256}

func (q Quality) String() string {
	if q < QualityLow || q > QualityHigh {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return qualityNames[q]
}

// ParseQuality parses "low", "medium" or "high". The empty string selects
// medium.
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return QualityMedium, nil
	}
	for i, name := range qualityNames {
		if s == name {
			return Quality(i), nil
		}
	}
	return QualityMedium, fmt.Errorf("unknown quality %q", s)
}

// PathResolution returns the number of orbit segments for quality q on a
// display with the given device pixel ratio. Non-positive or non-finite
// ratios count as 1.
func PathResolution(q Quality, pixelRatio float64) int {
	if q < QualityLow || q > QualityHigh {
		q = QualityMedium
	}
	if !(pixelRatio > 0) || math.IsInf(pixelRatio, 1) {
		pixelRatio = 1
	}
	n := int(math.Round(float64(qualityBase[q]) * pixelRatio))
	return max(MinPathPoints, n)
}

// OrbitPath samples the full ellipse of el at n segments uniformly spaced in
// mean anomaly. The returned path is closed: it holds n+1 points and the last
// repeats the first. A fixed body has no path.
func OrbitPath(el catalog.Elements, n int) []units.VecAU {
	if el.Fixed() {
		return nil
	}
	n = max(n, MinPathPoints)

	anomalies := floats.Span(make([]float64, n+1), 0, 2*math.Pi)
	path := make([]units.VecAU, n+1)
	for i, m := range anomalies {
		path[i] = transform.PositionAtMeanAnomaly(el, units.Radians(m))
	}
	// M = 2π lands on M = 0 up to rounding; pin it so the line closes exactly.
	path[n] = path[0]
	return path
}

// OrbitPathFor samples the orbit of id at the resolution for q and pixelRatio.
func OrbitPathFor(id catalog.BodyID, q Quality, pixelRatio float64) []units.VecAU {
	return OrbitPath(catalog.ElementsOf(id), PathResolution(q, pixelRatio))
}
