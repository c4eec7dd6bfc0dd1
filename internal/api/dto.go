package api

import (
	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

type elementsResponse struct {
	SemiMajorAxisAU     float64 `json:"semi_major_axis_au"`
	SemiMajorAxisRender float64 `json:"semi_major_axis_render"`
	Eccentricity        float64 `json:"eccentricity"`
	InclinationDeg      float64 `json:"inclination_deg"`
	AscendingNodeDeg    float64 `json:"ascending_node_deg"`
	PeriapsisArgDeg     float64 `json:"periapsis_arg_deg"`
	MeanAnomalyDeg      float64 `json:"mean_anomaly_at_epoch_deg"`
	EpochJD             float64 `json:"epoch_jd"`
	PeriodDays          float64 `json:"period_days"`
	PerihelionAU        float64 `json:"perihelion_au"`
	AphelionAU          float64 `json:"aphelion_au"`
}

type bodyResponse struct {
	ID                catalog.BodyID       `json:"id"`
	Name              string               `json:"name"`
	RadiusKm          float64              `json:"radius_km"`
	RenderRadius      float64              `json:"render_radius"`
	MassKg            float64              `json:"mass_kg"`
	Color             string               `json:"color"`
	RGB               [3]uint8             `json:"rgb"`
	Parent            catalog.BodyID       `json:"parent"`
	HasAtmosphere     bool                 `json:"has_atmosphere"`
	Density           float64              `json:"density"`
	Gravity           float64              `json:"gravity"`
	EscapeVelocity    float64              `json:"escape_velocity"`
	RotationPeriodH   float64              `json:"rotation_period_h"`
	RotationDirection int                  `json:"rotation_direction"`
	OrbitalPeriodDays float64              `json:"orbital_period_days"`
	Temperature       *catalog.Temperature `json:"temperature,omitempty"`
	Atmosphere        []string             `json:"atmosphere,omitempty"`
	Moons             int                  `json:"moons"`
	DiscoveryYear     int                  `json:"discovery_year"`
	DiscoveredBy      string               `json:"discovered_by"`
	Elements          *elementsResponse    `json:"elements,omitempty"`
}

func newBodyResponse(id catalog.BodyID, scale units.Scale) bodyResponse {
	b := catalog.Get(id)
	resp := bodyResponse{
		ID:                b.ID,
		Name:              b.Name,
		RadiusKm:          float64(b.RadiusKm),
		RenderRadius:      float64(scale.Radius(b.RadiusKm)),
		MassKg:            b.MassKg,
		Color:             b.Color,
		RGB:               catalog.RGB(id),
		Parent:            b.Parent,
		HasAtmosphere:     b.HasAtmos,
		Density:           b.Density,
		Gravity:           b.Gravity,
		EscapeVelocity:    b.EscapeVelocity,
		RotationPeriodH:   b.RotationPeriodH,
		RotationDirection: b.RotationDirection,
		OrbitalPeriodDays: b.OrbitalPeriodDays,
		Temperature:       b.Temperature,
		Atmosphere:        b.Atmosphere,
		Moons:             b.Moons,
		DiscoveryYear:     b.DiscoveryYear,
		DiscoveredBy:      b.DiscoveredBy,
	}
	if el := catalog.ElementsOf(id); !el.Fixed() {
		resp.Elements = &elementsResponse{
			SemiMajorAxisAU:     float64(el.SemiMajorAxis),
			SemiMajorAxisRender: float64(scale.AUToRender(el.SemiMajorAxis)),
			Eccentricity:        el.Eccentricity,
			InclinationDeg:      el.Inclination.Degrees(),
			AscendingNodeDeg:    el.AscendingNode.Degrees(),
			PeriapsisArgDeg:     el.PeriapsisArg.Degrees(),
			MeanAnomalyDeg:      el.MeanAnomalyAtEpoch.Degrees(),
			EpochJD:             float64(el.Epoch),
			PeriodDays:          float64(el.PeriodDays()),
			PerihelionAU:        float64(el.Perihelion()),
			AphelionAU:          float64(el.Aphelion()),
		}
	}
	return resp
}

type stateResponse struct {
	ID         catalog.BodyID  `json:"id"`
	JD         units.JulianDay `json:"jd"`
	Date       string          `json:"date"`
	PositionKm units.VecKm     `json:"position_km"`
	PositionAU units.VecAU     `json:"position_au"`
	DistanceAU float64         `json:"distance_au"`
	Render     units.VecRender `json:"render"`
	Spin       units.Radians   `json:"spin"`
	VelocityKm *units.VecKm    `json:"velocity_km"`
}

func newStateResponse(id catalog.BodyID, jd units.JulianDay, sv propagation.StateVector, scale units.Scale) stateResponse {
	return stateResponse{
		ID:         id,
		JD:         jd,
		Date:       simtime.FormatDate(jd),
		PositionKm: sv.Position,
		PositionAU: sv.Position.AU(),
		DistanceAU: float64(sv.Position.Norm().AU()),
		Render:     transform.ToRenderFrame(sv.Position, scale),
		Spin:       transform.SpinAngle(id, jd),
		VelocityKm: sv.Velocity,
	}
}

type relativeResponse struct {
	Observer       catalog.BodyID  `json:"observer"`
	Target         catalog.BodyID  `json:"target"`
	JD             units.JulianDay `json:"jd"`
	RangeKm        float64         `json:"range_km"`
	RangeAU        float64         `json:"range_au"`
	LightTimeS     float64         `json:"light_time_s"`
	EclipticLonDeg float64         `json:"ecliptic_lon_deg"`
	EclipticLatDeg float64         `json:"ecliptic_lat_deg"`
}

type keyframeResponse struct {
	JD     units.JulianDay     `json:"jd"`
	Date   string              `json:"date"`
	Bodies []keyframeBodyEntry `json:"bodies"`
}

type keyframeBodyEntry struct {
	ID         catalog.BodyID `json:"id"`
	PositionKm units.VecKm    `json:"position_km"`
	Spin       units.Radians  `json:"spin"`
}

func newKeyframeResponse(kf *propagation.Keyframe) keyframeResponse {
	bodies := make([]keyframeBodyEntry, len(kf.Bodies))
	for i, b := range kf.Bodies {
		bodies[i] = keyframeBodyEntry{ID: b.ID, PositionKm: b.Position, Spin: b.Spin}
	}
	return keyframeResponse{JD: kf.JD, Date: simtime.FormatDate(kf.JD), Bodies: bodies}
}

type sessionResponse struct {
	simtime.State
	Date       string `json:"date"`
	Generation uint64 `json:"generation"`
}

type timeResponse struct {
	JD       units.JulianDay `json:"jd"`
	Date     string          `json:"date"`
	UnixMs   int64           `json:"unix_ms"`
	Calendar calendarDate    `json:"calendar"`
}

type calendarDate struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Day   float64 `json:"day"`
}
