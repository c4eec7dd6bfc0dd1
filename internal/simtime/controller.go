// Package simtime advances simulated time under play/pause and a speed
// multiplier, and converts between Julian days and calendar dates.
//
// A Controller has no internal locking. It is meant to be owned by a single
// driving loop; hosts that share one across goroutines must synchronize
// access themselves.
package simtime

import (
	"math"
	"time"

	"github.com/star/orrery/internal/units"
)

const (
	MinSpeed = 0.1
	MaxSpeed = 1000.0

	// DaysPerSecond is the simulated time that passes per real second at
	// speed 1.
	DaysPerSecond = 0.1
)

// Config holds the initial controller state.
type Config struct {
	StartJD units.JulianDay
	Speed   float64
	Playing bool
}

// DefaultConfig starts paused at J2000 with speed 1.
func DefaultConfig() Config {
	return Config{
		StartJD: units.J2000,
		Speed:   1,
		Playing: false,
	}
}

// State is a point-in-time copy of the controller.
type State struct {
	JD      units.JulianDay `json:"jd"`
	Speed   float64         `json:"speed"`
	Playing bool            `json:"playing"`
}

// Date returns the calendar instant of the state.
func (s State) Date() time.Time {
	return JulianDayToDate(s.JD)
}

// Controller is the simulation clock.
type Controller struct {
	nowJD   units.JulianDay
	speed   float64
	playing bool
}

// NewController creates a controller from cfg. A non-finite start falls back
// to J2000 and the speed is clamped like SetSpeed.
func NewController(cfg Config) *Controller {
	c := &Controller{
		nowJD:   units.J2000,
		speed:   1,
		playing: cfg.Playing,
	}
	c.SetDate(cfg.StartJD)
	c.SetSpeed(cfg.Speed)
	return c
}

// Play starts the clock. Idempotent.
func (c *Controller) Play() { c.playing = true }

// Pause stops the clock. Idempotent.
func (c *Controller) Pause() { c.playing = false }

// SetSpeed clamps speed into [MinSpeed, MaxSpeed]. NaN is ignored.
func (c *Controller) SetSpeed(speed float64) {
	if math.IsNaN(speed) {
		return
	}
	c.speed = ClampSpeed(speed)
}

// SetDate seeks to jd without touching the play state. Non-finite values are
// ignored.
func (c *Controller) SetDate(jd units.JulianDay) {
	if math.IsNaN(float64(jd)) || math.IsInf(float64(jd), 0) {
		return
	}
	c.nowJD = jd
}

// Update advances the clock by deltaMillis of real time. It is a no-op while
// paused, and for negative or non-finite deltas.
func (c *Controller) Update(deltaMillis float64) {
	if !c.playing {
		return
	}
	if !(deltaMillis >= 0) || math.IsInf(deltaMillis, 1) {
		return
	}
	c.nowJD += units.JulianDay(deltaMillis / 1000 * c.speed * DaysPerSecond)
}

// NowJD returns the current simulated Julian day.
func (c *Controller) NowJD() units.JulianDay { return c.nowJD }

// Speed returns the speed multiplier.
func (c *Controller) Speed() float64 { return c.speed }

// IsPlaying reports whether the clock is running.
func (c *Controller) IsPlaying() bool { return c.playing }

// Snapshot copies the controller state.
func (c *Controller) Snapshot() State {
	return State{JD: c.nowJD, Speed: c.speed, Playing: c.playing}
}

// CurrentDate returns the simulated instant as a UTC time.
func (c *Controller) CurrentDate() time.Time {
	return JulianDayToDate(c.nowJD)
}

// ClampSpeed limits speed to [MinSpeed, MaxSpeed].
func ClampSpeed(speed float64) float64 {
	return math.Max(MinSpeed, math.Min(MaxSpeed, speed))
}
