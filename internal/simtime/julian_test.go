package simtime

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/orrery/internal/units"
)

func TestDateToJulianDay(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want units.JulianDay
	}{
		{"unix epoch", time.Unix(0, 0).UTC(), 2440587.5},
		{"J2000", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), units.J2000},
		{"non-UTC zone", time.Date(2000, 1, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600)), units.J2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateToJulianDay(tt.time); got != tt.want {
				t.Errorf("DateToJulianDay(%v) = %v, want %v", tt.time, got, tt.want)
			}
		})
	}
}

// TestDateToJulianDayMatchesSatellite cross-checks whole-second instants
// against go-satellite's JDay.
func TestDateToJulianDayMatchesSatellite(t *testing.T) {
	for _, tm := range []time.Time{
		time.Date(1986, 2, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		time.Date(2026, 10, 19, 23, 59, 59, 0, time.UTC),
	} {
		want := satellite.JDay(tm.Year(), int(tm.Month()), tm.Day(), tm.Hour(), tm.Minute(), tm.Second())
		got := float64(DateToJulianDay(tm))
		// One millisecond is 1.16e-8 days.
		if math.Abs(got-want) > 1e-8 {
			t.Errorf("%v: jd = %.9f, go-satellite = %.9f", tm, got, want)
		}
	}
}

func TestJulianDayRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	lo := time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	hi := time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i := 0; i < 10000; i++ {
		d := time.UnixMilli(lo + r.Int63n(hi-lo)).UTC()
		if got := JulianDayToDate(DateToJulianDay(d)); !got.Equal(d) {
			t.Fatalf("round trip %v -> %v", d, got)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		jd   units.JulianDay
		want string
	}{
		{"J2000", units.J2000, "2000-01-01T12:00:00Z"},
		{"julian day zero", 0, "-4713-11-24T12:00:00Z"},
		{"year 11715", 6e6, "11715-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.jd); !strings.HasPrefix(got, tt.want) {
				t.Errorf("FormatDate(%v) = %q, want prefix %q", tt.jd, got, tt.want)
			}
		})
	}
}

func TestJulianDayToDateSaturates(t *testing.T) {
	far := JulianDayToDate(6e6)
	if hi := JulianDayToDate(1e300); !hi.After(far) {
		t.Errorf("JulianDayToDate(1e300) = %v, want after %v", hi, far)
	}
	if lo := JulianDayToDate(-1e300); !lo.Before(JulianDayToDate(0)) {
		t.Errorf("JulianDayToDate(-1e300) = %v, want before JD 0", lo)
	}
	if got := JulianDayToDate(units.JulianDay(math.NaN())); !got.Equal(time.Unix(0, 0)) {
		t.Errorf("JulianDayToDate(NaN) = %v, want unix epoch", got)
	}
}

func TestCalendar(t *testing.T) {
	y, m, d := Calendar(units.J2000)
	if y != 2000 || m != 1 || math.Abs(d-1.5) > 1e-9 {
		t.Errorf("Calendar(J2000) = %d-%d-%v, want 2000-1-1.5", y, m, d)
	}

	jd, err := FromCalendar(2000, 1, 1.5)
	if err != nil || jd != units.J2000 {
		t.Errorf("FromCalendar(2000, 1, 1.5) = %v, %v", jd, err)
	}

	// Meeus example 7.a: 1957 October 4.81.
	jd, err = FromCalendar(1957, 10, 4.81)
	if err != nil || math.Abs(float64(jd)-2436116.31) > 1e-6 {
		t.Errorf("FromCalendar(1957, 10, 4.81) = %v, %v", jd, err)
	}
}

func TestFromCalendarInvalid(t *testing.T) {
	for _, tt := range []struct {
		m int
		d float64
	}{{0, 1}, {13, 1}, {6, 0}, {6, 32}, {6, math.NaN()}} {
		if _, err := FromCalendar(2020, tt.m, tt.d); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("FromCalendar(2020, %d, %v) err = %v, want ErrInvalidDate", tt.m, tt.d, err)
		}
	}
}

func TestParse(t *testing.T) {
	if jd, err := ParseJD(" 2451545.25 "); err != nil || jd != 2451545.25 {
		t.Errorf("ParseJD = %v, %v", jd, err)
	}
	for _, bad := range []string{"", "abc", "NaN", "+Inf"} {
		if _, err := ParseJD(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseJD(%q) err = %v, want ErrInvalidDate", bad, err)
		}
	}

	for in, want := range map[string]units.JulianDay{
		"2000-01-01T12:00:00Z":      units.J2000,
		"2000-01-01T12:00:00":       units.J2000,
		"2000-01-01T13:00:00+01:00": units.J2000,
		"2000-01-01":                units.J2000 - 0.5,
	} {
		if jd, err := ParseDate(in); err != nil || jd != want {
			t.Errorf("ParseDate(%q) = %v, %v; want %v", in, jd, err, want)
		}
	}
	if _, err := ParseDate("yesterday"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseDate(yesterday) err = %v", err)
	}
}
