// Package session hosts a shared simulation clock. A Session owns one
// simtime.Controller, advances it from a wall-clock ticker, and serves
// consistent snapshots and body frames to any number of goroutines.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/metrics"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

// Config holds session configuration.
type Config struct {
	Clock        simtime.Config
	TickInterval time.Duration // wall-clock update interval (default: 50ms)
	Scale        units.Scale
}

// BodyFrame is one body's position in a published frame.
type BodyFrame struct {
	ID       catalog.BodyID  `json:"id"`
	Position units.VecKm     `json:"position_km"`
	Render   units.VecRender `json:"render"`
	Spin     units.Radians   `json:"spin"`
}

// Frame is the state of the whole simulation at one instant.
type Frame struct {
	State      simtime.State `json:"state"`
	Date       string        `json:"date"`
	Generation uint64        `json:"generation"`
	Bodies     []BodyFrame   `json:"bodies"`
}

// Session synchronizes access to a single time controller.
type Session struct {
	mu   sync.RWMutex
	ctrl *simtime.Controller

	generation atomic.Uint64

	provider propagation.EphemerisProvider
	config   Config
	logger   *slog.Logger

	subsMu sync.Mutex
	subs   map[chan Frame]struct{}
}

// New creates a session with a controller built from cfg.Clock.
func New(cfg Config, provider propagation.EphemerisProvider, logger *slog.Logger) *Session {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 50 * time.Millisecond
	}
	s := &Session{
		ctrl:     simtime.NewController(cfg.Clock),
		provider: provider,
		config:   cfg,
		logger:   logger,
		subs:     make(map[chan Frame]struct{}),
	}
	s.publishMetrics(s.ctrl.Snapshot())
	return s
}

// Run advances the clock by the elapsed wall-clock time on every tick and
// publishes a frame to subscribers. Blocks until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	s.logger.Info("session loop started",
		"tick_ms", s.config.TickInterval.Milliseconds(),
		"jd", float64(s.NowJD()),
	)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session loop stopped")
			return
		case now := <-ticker.C:
			st := s.Advance(now.Sub(last))
			last = now
			if st.Playing {
				s.broadcast(s.frameAt(st))
			}
		}
	}
}

// Advance moves the clock forward by elapsed real time and returns the new
// state.
func (s *Session) Advance(elapsed time.Duration) simtime.State {
	s.mu.Lock()
	s.ctrl.Update(float64(elapsed) / float64(time.Millisecond))
	st := s.ctrl.Snapshot()
	s.mu.Unlock()

	s.publishMetrics(st)
	return st
}

// Play starts the clock.
func (s *Session) Play() simtime.State {
	return s.mutate(func(c *simtime.Controller) { c.Play() })
}

// Pause stops the clock.
func (s *Session) Pause() simtime.State {
	return s.mutate(func(c *simtime.Controller) { c.Pause() })
}

// SetSpeed clamps and applies a new speed multiplier.
func (s *Session) SetSpeed(speed float64) simtime.State {
	return s.mutate(func(c *simtime.Controller) { c.SetSpeed(speed) })
}

// SetDate seeks to jd and starts a new generation so caches can discard
// keyframes computed around the old instant.
func (s *Session) SetDate(jd units.JulianDay) simtime.State {
	st := s.mutate(func(c *simtime.Controller) {
		c.SetDate(jd)
		s.generation.Add(1)
	})
	metrics.IncSessionSeeks()
	s.logger.Info("session seek", "jd", float64(st.JD), "generation", s.Generation())
	return st
}

func (s *Session) mutate(fn func(c *simtime.Controller)) simtime.State {
	s.mu.Lock()
	fn(s.ctrl)
	st := s.ctrl.Snapshot()
	s.mu.Unlock()

	s.publishMetrics(st)
	s.broadcast(s.frameAt(st))
	return st
}

// Snapshot returns the current clock state.
func (s *Session) Snapshot() simtime.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl.Snapshot()
}

// NowJD returns the current simulated Julian day.
func (s *Session) NowJD() units.JulianDay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl.NowJD()
}

// Generation counts seeks since the session started.
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

// Frame computes every body's position at the current instant.
func (s *Session) Frame() Frame {
	return s.frameAt(s.Snapshot())
}

func (s *Session) frameAt(st simtime.State) Frame {
	ids := catalog.All()
	bodies := make([]BodyFrame, len(ids))
	for i, id := range ids {
		pos := s.provider.State(id, st.JD).Position
		bodies[i] = BodyFrame{
			ID:       id,
			Position: pos,
			Render:   transform.ToRenderFrame(pos, s.config.Scale),
			Spin:     transform.SpinAngle(id, st.JD),
		}
	}
	return Frame{
		State:      st,
		Date:       simtime.FormatDate(st.JD),
		Generation: s.Generation(),
		Bodies:     bodies,
	}
}

// Subscribe registers for frames. The channel holds one pending frame; slow
// subscribers miss intermediate frames rather than blocking the loop. Call the
// returned function to unsubscribe.
func (s *Session) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)

	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, ch)
			s.subsMu.Unlock()
		})
	}
}

func (s *Session) broadcast(f Frame) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for ch := range s.subs {
		// Replace a stale pending frame with the newest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}

func (s *Session) publishMetrics(st simtime.State) {
	metrics.SetSessionState(float64(st.JD), st.Speed, st.Playing)
}
