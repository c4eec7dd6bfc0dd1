package catalog

import (
	"errors"
	"testing"

	"github.com/star/orrery/internal/kepler"
	"github.com/star/orrery/internal/units"
)

func TestEveryBodyHasRecords(t *testing.T) {
	ids := All()
	if len(ids) != 9 {
		t.Fatalf("All() returned %d bodies, want 9", len(ids))
	}

	for _, id := range ids {
		t.Run(id.String(), func(t *testing.T) {
			b := Get(id)
			if b.ID != id {
				t.Errorf("record ID = %v, want %v", b.ID, id)
			}
			if b.Name == "" {
				t.Error("empty display name")
			}
			if b.RadiusKm <= 0 {
				t.Errorf("radius = %v, want > 0", b.RadiusKm)
			}
			if b.MassKg <= 0 {
				t.Errorf("mass = %v, want > 0", b.MassKg)
			}

			el := ElementsOf(id)
			if el.SemiMajorAxis < 0 {
				t.Errorf("semi-major axis = %v, want >= 0", el.SemiMajorAxis)
			}
			if el.Eccentricity < 0 || el.Eccentricity >= 1 {
				t.Errorf("eccentricity = %v, want [0, 1)", el.Eccentricity)
			}
			if el.Epoch != units.J2000 {
				t.Errorf("epoch = %v, want J2000", el.Epoch)
			}
		})
	}
}

func TestOnlySunIsFixed(t *testing.T) {
	for _, id := range All() {
		fixed := ElementsOf(id).Fixed()
		if fixed != (id == Sun) {
			t.Errorf("%s: Fixed() = %v", id, fixed)
		}
	}
}

func TestParseBodyID(t *testing.T) {
	tests := []struct {
		in      string
		want    BodyID
		wantErr bool
	}{
		{"earth", Earth, false},
		{"EARTH", Earth, false},
		{" Neptune ", Neptune, false},
		{"sun", Sun, false},
		{"pluto", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBodyID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownBody) {
					t.Fatalf("ParseBodyID(%q) error = %v, want ErrUnknownBody", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBodyID(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseBodyID(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnknownBodyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ElementsOf(invalid) did not panic")
		}
	}()
	ElementsOf(BodyID(200))
}

func TestTextRoundTrip(t *testing.T) {
	data, err := Mars.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var id BodyID
	if err := id.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if id != Mars {
		t.Errorf("round trip = %v, want mars", id)
	}
}

func TestPeriodDays(t *testing.T) {
	if got := ElementsOf(Sun).PeriodDays(); got != 0 {
		t.Errorf("sun period = %v, want 0", got)
	}
	// Earth: 365.25 * 1.00000261^1.5 ≈ 365.2514.
	got := ElementsOf(Earth).PeriodDays()
	if got < 365.25 || got > 365.26 {
		t.Errorf("earth period = %v, want ≈365.2514", got)
	}
	// The period is one full turn of the propagator's mean motion.
	for _, id := range All() {
		el := ElementsOf(id)
		if el.Fixed() {
			continue
		}
		if got, want := el.PeriodDays(), kepler.PeriodDays(el.SemiMajorAxis); got != want {
			t.Errorf("%s period = %v, want %v", id, got, want)
		}
	}
}

func TestColors(t *testing.T) {
	if got := RGB(Sun); got != [3]uint8{0xFD, 0xB8, 0x13} {
		t.Errorf("sun RGB = %v", got)
	}
	if got := ColorOf(Earth).Hex(); got != "#4169e1" {
		t.Errorf("earth hex = %q, want #4169e1", got)
	}
}
