package simtime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/star/orrery/internal/units"
)

// UnixEpochJD is the Julian day of 1970-01-01T00:00:00Z.
const UnixEpochJD units.JulianDay = 2440587.5

const millisPerDay = 86_400_000

// maxOffsetDays bounds the distance from the Unix epoch that JulianDayToDate
// represents; further days saturate instead of overflowing int64 milliseconds.
const maxOffsetDays = 1e11

// ErrInvalidDate is returned for date or Julian day input that cannot be
// converted.
var ErrInvalidDate = errors.New("invalid date")

// DateToJulianDay converts t to a Julian day at millisecond resolution.
func DateToJulianDay(t time.Time) units.JulianDay {
	return units.JulianDay(float64(t.UnixMilli())/millisPerDay) + UnixEpochJD
}

// JulianDayToDate converts jd to a UTC time rounded to the nearest millisecond.
// Days beyond about 270 million years from 1970 saturate; NaN maps to the
// Unix epoch.
func JulianDayToDate(jd units.JulianDay) time.Time {
	days := float64(jd - UnixEpochJD)
	switch {
	case math.IsNaN(days):
		days = 0
	case days > maxOffsetDays:
		days = maxOffsetDays
	case days < -maxOffsetDays:
		days = -maxOffsetDays
	}
	return time.UnixMilli(int64(math.Round(days * millisPerDay))).UTC()
}

// FormatDate renders jd as an RFC 3339 timestamp. Unlike time.Time's JSON
// encoding it accepts years outside 0-9999, which the engine reaches when
// seeking or running at high speed.
func FormatDate(jd units.JulianDay) string {
	return JulianDayToDate(jd).Format(time.RFC3339Nano)
}

// Calendar splits jd into year, month and fractional day. Dates before the
// 1582 reform are expressed in the Julian calendar.
func Calendar(jd units.JulianDay) (year, month int, day float64) {
	return julian.JDToCalendar(float64(jd))
}

// FromCalendar converts a proleptic Gregorian calendar date with fractional
// day to a Julian day.
func FromCalendar(year, month int, day float64) (units.JulianDay, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	if !(day >= 1 && day < 32) {
		return 0, fmt.Errorf("%w: day %v", ErrInvalidDate, day)
	}
	return units.JulianDay(julian.CalendarGregorianToJD(year, month, day)), nil
}

// ParseJD parses a finite Julian day number.
func ParseJD(s string) (units.JulianDay, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite julian day", ErrInvalidDate)
	}
	return units.JulianDay(v), nil
}

// ParseDate parses an RFC 3339 timestamp or a bare YYYY-MM-DD date (UTC
// midnight) into a Julian day.
func ParseDate(s string) (units.JulianDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateToJulianDay(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
