package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/units"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestSession(playing bool) *Session {
	cfg := Config{
		Clock:        simtime.Config{StartJD: units.J2000, Speed: 1, Playing: playing},
		TickInterval: 5 * time.Millisecond,
		Scale:        units.DefaultScale(),
	}
	return New(cfg, propagation.NewKeplerProvider(), testLogger())
}

func TestAdvance(t *testing.T) {
	s := newTestSession(false)
	s.Advance(time.Second)
	if s.NowJD() != units.J2000 {
		t.Errorf("paused session advanced to %v", s.NowJD())
	}

	s.Play()
	st := s.Advance(time.Second)
	if math.Abs(float64(st.JD.Sub(units.J2000))-0.1) > 1e-9 {
		t.Errorf("advanced %v days, want 0.1", st.JD.Sub(units.J2000))
	}
}

func TestControlMethods(t *testing.T) {
	s := newTestSession(false)

	if st := s.SetSpeed(5000); st.Speed != simtime.MaxSpeed {
		t.Errorf("speed = %v, want clamp to %v", st.Speed, simtime.MaxSpeed)
	}
	if st := s.Play(); !st.Playing {
		t.Error("Play did not start clock")
	}
	if st := s.Pause(); st.Playing {
		t.Error("Pause did not stop clock")
	}

	gen := s.Generation()
	st := s.SetDate(2460000.5)
	if st.JD != 2460000.5 || st.Playing {
		t.Errorf("SetDate state = %+v", st)
	}
	if s.Generation() != gen+1 {
		t.Errorf("generation = %d, want %d", s.Generation(), gen+1)
	}
	if s.Snapshot() != st {
		t.Errorf("Snapshot = %+v, want %+v", s.Snapshot(), st)
	}
}

func TestFrame(t *testing.T) {
	s := newTestSession(false)
	f := s.Frame()

	if len(f.Bodies) != len(catalog.All()) {
		t.Fatalf("frame has %d bodies, want %d", len(f.Bodies), len(catalog.All()))
	}
	if f.Bodies[catalog.Sun].Position != (units.VecKm{}) {
		t.Errorf("sun not at origin: %+v", f.Bodies[catalog.Sun].Position)
	}
	earth := f.Bodies[catalog.Earth]
	if earth.ID != catalog.Earth {
		t.Fatalf("bodies not indexed by id: %v", earth.ID)
	}
	// Render frame swaps the ecliptic y into scene z.
	if earth.Render.Z != units.DefaultScale().Distance(earth.Position.Y) {
		t.Errorf("render z = %v, want scaled y %v", earth.Render.Z, earth.Position.Y)
	}
	if f.Date != "2000-01-01T12:00:00Z" {
		t.Errorf("frame date = %q", f.Date)
	}
}

func TestFrameEncodesAnyYear(t *testing.T) {
	tests := []struct {
		jd   units.JulianDay
		want string
	}{
		{0, `"date":"-4713-11-24T12:00:00Z"`},
		{1e6, `"date":"-1975-`},
		{6e6, `"date":"11715-`},
	}
	for _, tt := range tests {
		s := newTestSession(false)
		s.SetDate(tt.jd)
		b, err := json.Marshal(s.Frame())
		if err != nil {
			t.Fatalf("marshal frame at JD %v: %v", tt.jd, err)
		}
		if !strings.Contains(string(b), tt.want) {
			t.Errorf("frame at JD %v missing %s", tt.jd, tt.want)
		}
	}
}

func TestSubscribeReceivesControlFrames(t *testing.T) {
	s := newTestSession(false)
	ch, cancel := s.Subscribe()
	defer cancel()

	s.SetDate(2455000)
	select {
	case f := <-ch:
		if f.State.JD != 2455000 {
			t.Errorf("frame JD = %v, want 2455000", f.State.JD)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame after SetDate")
	}

	// A slow subscriber only sees the newest frame.
	s.SetSpeed(2)
	s.SetSpeed(3)
	f := <-ch
	if f.State.Speed != 3 {
		t.Errorf("pending frame speed = %v, want 3", f.State.Speed)
	}

	cancel()
	cancel()
	s.SetSpeed(4)
	select {
	case f := <-ch:
		t.Errorf("received frame after unsubscribe: %+v", f.State)
	default:
	}
}

func TestRunPublishesWhilePlaying(t *testing.T) {
	s := newTestSession(true)
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx)
	}()

	select {
	case f := <-ch:
		if f.State.JD <= units.J2000 {
			t.Errorf("clock did not advance: %v", f.State.JD)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame from running session")
	}

	cancel()
	wg.Wait()
}

// TestConcurrentAccess exercises readers and writers together; run with -race.
func TestConcurrentAccess(t *testing.T) {
	s := newTestSession(true)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Advance(time.Millisecond)
			}
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Frame()
				s.SetSpeed(float64(i + j))
			}
		}(i)
	}
	wg.Wait()

	if s.NowJD() <= units.J2000 {
		t.Errorf("clock did not advance under concurrency: %v", s.NowJD())
	}
}
