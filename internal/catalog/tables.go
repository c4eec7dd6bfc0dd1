package catalog

import "github.com/star/orrery/internal/units"

const solarMassKg = 1.9891e30

var bodyTable = [...]Body{
	Sun: {
		ID:              Sun,
		Name:            "Sun",
		RadiusKm:        696340,
		MassKg:          solarMassKg,
		Color:           "#FDB813",
		Parent:          Sun,
		Density:         1408,
		Gravity:         274,
		EscapeVelocity:  617.5,
		RotationPeriodH: 609.12,
		Temperature:     &Temperature{Min: 5778, Max: 15000000, Mean: 5778},
		DiscoveryYear:   -3000,
		DiscoveredBy:    "Ancient civilizations",
	},
	Mercury: {
		ID:                Mercury,
		Name:              "Mercury",
		RadiusKm:          2439.7,
		MassKg:            3.3011e23,
		Color:             "#B87333",
		Parent:            Sun,
		Density:           5427,
		Gravity:           3.7,
		EscapeVelocity:    4.25,
		RotationPeriodH:   1407.6,
		OrbitalPeriodDays: 88,
		Temperature:       &Temperature{Min: 100, Max: 700, Mean: 340},
		DiscoveryYear:     -3000,
		DiscoveredBy:      "Ancient civilizations",
	},
	Venus: {
		ID:                Venus,
		Name:              "Venus",
		RadiusKm:          6051.8,
		MassKg:            4.8675e24,
		Color:             "#FFA500",
		Parent:            Sun,
		HasAtmos:          true,
		Density:           5243,
		Gravity:           8.87,
		EscapeVelocity:    10.36,
		RotationPeriodH:   5832.5,
		RotationDirection: -1,
		OrbitalPeriodDays: 225,
		Temperature:       &Temperature{Min: 737, Max: 737, Mean: 737},
		Atmosphere:        []string{"CO₂ (96%)", "N₂ (3.5%)", "SO₂, H₂O"},
		DiscoveryYear:     -3000,
		DiscoveredBy:      "Ancient civilizations",
	},
	Earth: {
		ID:                Earth,
		Name:              "Earth",
		RadiusKm:          6371,
		MassKg:            5.9724e24,
		Color:             "#4169E1",
		Parent:            Sun,
		HasAtmos:          true,
		Density:           5514,
		Gravity:           9.8,
		EscapeVelocity:    11.19,
		RotationPeriodH:   24,
		OrbitalPeriodDays: 365.25,
		Temperature:       &Temperature{Min: 184, Max: 330, Mean: 288},
		Atmosphere:        []string{"N₂ (78%)", "O₂ (21%)", "Ar, CO₂"},
		Moons:             1,
		DiscoveryYear:     -3000,
		DiscoveredBy:      "Ancient civilizations",
	},
	Mars: {
		ID:                Mars,
		Name:              "Mars",
		RadiusKm:          3389.5,
		MassKg:            6.4171e23,
		Color:             "#FF4500",
		Parent:            Sun,
		HasAtmos:          true,
		Density:           3933,
		Gravity:           3.71,
		EscapeVelocity:    5.03,
		RotationPeriodH:   24.6,
		OrbitalPeriodDays: 687,
		Temperature:       &Temperature{Min: 130, Max: 308, Mean: 210},
		Atmosphere:        []string{"CO₂ (95%)", "N₂ (3%)", "Ar (1.6%)"},
		Moons:             2,
		DiscoveryYear:     -3000,
		DiscoveredBy:      "Ancient civilizations",
	},
	Jupiter: {
		ID:                Jupiter,
		Name:              "Jupiter",
		RadiusKm:          69911,
		MassKg:            1.8982e27,
		Color:             "#D2691E",
		Parent:            Sun,
		HasAtmos:          true,
		Density:           1326,
		Gravity:           24.79,
		EscapeVelocity:    59.5,
		RotationPeriodH:   9.9,
		OrbitalPeriodDays: 4333,
		Temperature:       &Temperature{Min: 165, Max: 165, Mean: 165},
		Atmosphere:        []string{"H₂ (89%)", "He (10%)", "CH₄, NH₃"},
		Moons:             95,
		DiscoveryYear:     -3000,
		DiscoveredBy:      "Ancient civilizations",
	},
	Saturn: {
		ID:                Saturn,
		Name:              "Saturn",
		RadiusKm:          58232,
		MassKg:            5.6834e26,
		Color:             "#F4A460",
		Parent:            Sun,
		HasAtmos:          true,
		Density:           687,
		Gravity:           10.44,
		EscapeVelocity:    35.5,
		RotationPeriodH:   10.7,
		OrbitalPeriodDays: 10759,
		Temperature:       &Temperature{Min: 134, Max: 134, Mean: 134},
		Atmosphere:        []string{"H₂ (96%)", "He (3%)", "CH₄, NH₃"},
		Moons:             146,
		DiscoveryYear:     -3000,
		DiscoveredBy:      "Ancient civilizations",
	},
	Uranus: {
		ID:                Uranus,
		Name:              "Uranus",
		RadiusKm:          25362,
		MassKg:            8.6810e25,
		Color:             "#40E0D0",
		Parent:            Sun,
		HasAtmos:          true,
		Density:           1271,
		Gravity:           8.69,
		EscapeVelocity:    21.3,
		RotationPeriodH:   17.2,
		RotationDirection: -1,
		OrbitalPeriodDays: 30687,
		Temperature:       &Temperature{Min: 76, Max: 76, Mean: 76},
		Atmosphere:        []string{"H₂ (83%)", "He (15%)", "CH₄ (2%)"},
		Moons:             28,
		DiscoveryYear:     1781,
		DiscoveredBy:      "William Herschel",
	},
	Neptune: {
		ID:                Neptune,
		Name:              "Neptune",
		RadiusKm:          24622,
		MassKg:            1.0243e26,
		Color:             "#1E90FF",
		Parent:            Sun,
		HasAtmos:          true,
		Density:           1638,
		Gravity:           11.15,
		EscapeVelocity:    23.5,
		RotationPeriodH:   16.1,
		OrbitalPeriodDays: 60190,
		Temperature:       &Temperature{Min: 72, Max: 72, Mean: 72},
		Atmosphere:        []string{"H₂ (80%)", "He (19%)", "CH₄ (1%)"},
		Moons:             16,
		DiscoveryYear:     1846,
		DiscoveredBy:      "Le Verrier & Galle",
	},
}

// J2000 mean elements (Standish, JPL "Keplerian Elements for Approximate
// Positions of the Major Planets", table 1). PeriapsisArg holds the longitude
// of perihelion ϖ and MeanAnomalyAtEpoch the mean longitude L, as in the
// source table; positions are computed from these values directly.
var elementTable = [...]Elements{
	Sun: {Epoch: units.J2000},
	Mercury: {
		SemiMajorAxis:      0.38709927,
		Eccentricity:       0.20563593,
		Inclination:        units.FromDegrees(7.00497902),
		AscendingNode:      units.FromDegrees(48.33076593),
		PeriapsisArg:       units.FromDegrees(77.45779628),
		MeanAnomalyAtEpoch: units.FromDegrees(252.25032350),
		Epoch:              units.J2000,
	},
	Venus: {
		SemiMajorAxis:      0.72333566,
		Eccentricity:       0.00677672,
		Inclination:        units.FromDegrees(3.39467605),
		AscendingNode:      units.FromDegrees(76.67984255),
		PeriapsisArg:       units.FromDegrees(131.60246718),
		MeanAnomalyAtEpoch: units.FromDegrees(181.97909950),
		Epoch:              units.J2000,
	},
	Earth: {
		SemiMajorAxis:      1.00000261,
		Eccentricity:       0.01671123,
		Inclination:        units.FromDegrees(-0.00001531),
		AscendingNode:      units.FromDegrees(0.0),
		PeriapsisArg:       units.FromDegrees(102.93768193),
		MeanAnomalyAtEpoch: units.FromDegrees(100.46457166),
		Epoch:              units.J2000,
	},
	Mars: {
		SemiMajorAxis:      1.52371034,
		Eccentricity:       0.09339410,
		Inclination:        units.FromDegrees(1.84969142),
		AscendingNode:      units.FromDegrees(49.55953891),
		PeriapsisArg:       units.FromDegrees(-23.94362959),
		MeanAnomalyAtEpoch: units.FromDegrees(-4.55343205),
		Epoch:              units.J2000,
	},
	Jupiter: {
		SemiMajorAxis:      5.20288700,
		Eccentricity:       0.04838624,
		Inclination:        units.FromDegrees(1.30439695),
		AscendingNode:      units.FromDegrees(100.47390909),
		PeriapsisArg:       units.FromDegrees(14.72847983),
		MeanAnomalyAtEpoch: units.FromDegrees(34.39644051),
		Epoch:              units.J2000,
	},
	Saturn: {
		SemiMajorAxis:      9.53667594,
		Eccentricity:       0.05386179,
		Inclination:        units.FromDegrees(2.48599187),
		AscendingNode:      units.FromDegrees(113.66242448),
		PeriapsisArg:       units.FromDegrees(92.59887831),
		MeanAnomalyAtEpoch: units.FromDegrees(49.95424423),
		Epoch:              units.J2000,
	},
	Uranus: {
		SemiMajorAxis:      19.18916464,
		Eccentricity:       0.04725744,
		Inclination:        units.FromDegrees(0.77263783),
		AscendingNode:      units.FromDegrees(74.01692503),
		PeriapsisArg:       units.FromDegrees(96.99853200),
		MeanAnomalyAtEpoch: units.FromDegrees(142.23834050),
		Epoch:              units.J2000,
	},
	Neptune: {
		SemiMajorAxis:      30.06992276,
		Eccentricity:       0.00859048,
		Inclination:        units.FromDegrees(1.77004347),
		AscendingNode:      units.FromDegrees(131.78422574),
		PeriapsisArg:       units.FromDegrees(44.96476227),
		MeanAnomalyAtEpoch: units.FromDegrees(256.22583450),
		Epoch:              units.J2000,
	},
}
