package propagation

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// nanProvider returns a non-finite position for one body.
type nanProvider struct {
	bad catalog.BodyID
}

func (p nanProvider) State(id catalog.BodyID, jd units.JulianDay) StateVector {
	if id == p.bad {
		return StateVector{Position: units.VecKm{X: units.Kilometers(math.NaN())}}
	}
	return KeplerProvider{}.State(id, jd)
}

// strayProvider places one body far outside its orbit.
type strayProvider struct {
	stray catalog.BodyID
}

func (p strayProvider) State(id catalog.BodyID, jd units.JulianDay) StateVector {
	if id == p.stray {
		return StateVector{Position: units.VecKm{X: units.AU(100).Km()}}
	}
	return KeplerProvider{}.State(id, jd)
}

// TestSunAtOrigin verifies the central body is pinned to the origin with no
// velocity at any time.
func TestSunAtOrigin(t *testing.T) {
	p := NewKeplerProvider()
	for _, jd := range []units.JulianDay{0, units.J2000, 2460000.5, 1e7} {
		sv := p.State(catalog.Sun, jd)
		if sv.Position != (units.VecKm{}) {
			t.Errorf("sun at JD %v = %+v, want origin", jd, sv.Position)
		}
		if sv.Velocity != nil {
			t.Errorf("sun at JD %v has velocity %+v, want nil", jd, *sv.Velocity)
		}
	}
}

// TestProviderMatchesTransform verifies orbiting bodies delegate to the
// Keplerian transform.
func TestProviderMatchesTransform(t *testing.T) {
	p := NewKeplerProvider()
	jd := units.JulianDay(2460310.5)
	for _, id := range catalog.All() {
		if id == catalog.Sun {
			continue
		}
		sv := p.State(id, jd)
		want := transform.KeplerianToCartesian(catalog.ElementsOf(id), jd)
		if sv.Position != want {
			t.Errorf("%s: provider = %+v, transform = %+v", id, sv.Position, want)
		}
		if sv.Velocity != nil {
			t.Errorf("%s: velocity should be nil", id)
		}
	}
}

// TestProviderConcurrent exercises the provider from many goroutines; run
// with -race.
func TestProviderConcurrent(t *testing.T) {
	p := NewKeplerProvider()
	want := p.State(catalog.Jupiter, units.J2000)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := p.State(catalog.Jupiter, units.J2000); got.Position != want.Position {
					t.Errorf("concurrent result differs: %+v", got.Position)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// TestWorkerPoolBatch verifies the worker pool evaluates every body in order.
func TestWorkerPoolBatch(t *testing.T) {
	pool := NewWorkerPool(4, testLogger())

	states, successCount, errorCount := pool.PropagateBatch(context.Background(), NewKeplerProvider(), catalog.All(), units.J2000)
	if errorCount != 0 {
		t.Fatalf("errors = %d, want 0", errorCount)
	}
	if successCount != len(catalog.All()) || len(states) != successCount {
		t.Fatalf("got %d states (%d successes), want %d", len(states), successCount, len(catalog.All()))
	}

	for i, s := range states {
		if s.ID != catalog.BodyID(i) {
			t.Errorf("states[%d].ID = %s, want %s", i, s.ID, catalog.BodyID(i))
		}
		el := catalog.ElementsOf(s.ID)
		if el.Fixed() {
			continue
		}
		if !transform.ValidateHeliocentric(el, s.Position, 1e-9) {
			t.Errorf("%s: position %+v outside orbit shell", s.ID, s.Position)
		}
	}
}

// TestWorkerPoolKeepsInputOrder verifies results follow the order of ids, not
// completion order.
func TestWorkerPoolKeepsInputOrder(t *testing.T) {
	pool := NewWorkerPool(3, testLogger())
	ids := []catalog.BodyID{catalog.Neptune, catalog.Earth, catalog.Sun, catalog.Mercury}

	states, _, _ := pool.PropagateBatch(context.Background(), NewKeplerProvider(), ids, units.J2000)
	if len(states) != len(ids) {
		t.Fatalf("got %d states, want %d", len(states), len(ids))
	}
	for i, s := range states {
		if s.ID != ids[i] {
			t.Errorf("states[%d] = %s, want %s", i, s.ID, ids[i])
		}
	}
}

// TestWorkerPoolSkipsNonFinite verifies a bad body is counted and dropped.
func TestWorkerPoolSkipsNonFinite(t *testing.T) {
	pool := NewWorkerPool(2, testLogger())

	states, successCount, errorCount := pool.PropagateBatch(context.Background(), nanProvider{bad: catalog.Mars}, catalog.All(), units.J2000)
	if errorCount != 1 {
		t.Errorf("errors = %d, want 1", errorCount)
	}
	if successCount != len(catalog.All())-1 {
		t.Errorf("successes = %d, want %d", successCount, len(catalog.All())-1)
	}
	for _, s := range states {
		if s.ID == catalog.Mars {
			t.Error("non-finite body should be skipped")
		}
	}
}

// TestWorkerPoolRejectsOutsideOrbit verifies positions beyond the apsides are
// dropped.
func TestWorkerPoolRejectsOutsideOrbit(t *testing.T) {
	pool := NewWorkerPool(2, testLogger())

	states, _, errorCount := pool.PropagateBatch(context.Background(), strayProvider{stray: catalog.Venus}, catalog.All(), units.J2000)
	if errorCount != 1 {
		t.Errorf("errors = %d, want 1", errorCount)
	}
	for _, s := range states {
		if s.ID == catalog.Venus {
			t.Error("stray body should be skipped")
		}
	}
}

// TestWorkerPoolCancellation verifies the worker pool respects context cancellation.
func TestWorkerPoolCancellation(t *testing.T) {
	pool := NewWorkerPool(2, testLogger())

	// Many jobs to ensure some are still pending when cancelled.
	ids := make([]catalog.BodyID, 1000)
	for i := range ids {
		ids[i] = catalog.BodyID(i % len(catalog.All()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	states, successCount, errorCount := pool.PropagateBatch(ctx, NewKeplerProvider(), ids, units.J2000)
	if len(states) != 0 || successCount != 0 {
		t.Errorf("cancelled batch returned %d states (%d successes), want none", len(states), successCount)
	}
	if errorCount != 0 {
		t.Errorf("skipped bodies counted as %d errors, want 0", errorCount)
	}
}

// TestPropagatorGenerateKeyframes verifies keyframe generation over a horizon.
func TestPropagatorGenerateKeyframes(t *testing.T) {
	cfg := PropConfig{
		Workers: 2,
		Step:    0.5,
		Horizon: 2,
	}
	prop := NewPropagator(NewKeplerProvider(), cfg, testLogger())
	start := units.JulianDay(2460000.5)

	keyframes, err := prop.GenerateKeyframes(context.Background(), start)
	if err != nil {
		t.Fatalf("GenerateKeyframes failed: %v", err)
	}

	// 2 days at 0.5 day step: 0, 0.5, 1, 1.5, 2 = 5 frames.
	if len(keyframes) != 5 {
		t.Fatalf("got %d keyframes, want 5", len(keyframes))
	}

	for i, kf := range keyframes {
		want := start.Add(units.Days(i) * cfg.Step)
		if kf.JD != want {
			t.Errorf("keyframe %d: JD = %v, want %v", i, kf.JD, want)
		}
		if len(kf.Bodies) != len(catalog.All()) {
			t.Errorf("keyframe %d: %d bodies, want %d", i, len(kf.Bodies), len(catalog.All()))
		}
		if earth, ok := kf.Body(catalog.Earth); !ok || earth.Position.Norm() == 0 {
			t.Errorf("keyframe %d: missing earth position", i)
		}
	}

	// Earth moves roughly a degree per day.
	e0, _ := keyframes[0].Body(catalog.Earth)
	e2, _ := keyframes[2].Body(catalog.Earth)
	moved := float64(e2.Position.Sub(e0.Position).Norm())
	if moved < 2.0e6 || moved > 3.2e6 {
		t.Errorf("earth moved %.0f km in one day, want ≈2.6e6", moved)
	}
}

func TestPropagatorCancelled(t *testing.T) {
	prop := NewPropagator(NewKeplerProvider(), PropConfig{Workers: 1, Step: 1, Horizon: 10}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := prop.PropagateToJD(ctx, units.J2000); err == nil {
		t.Error("expected error from cancelled context")
	}
	kfs, err := prop.GenerateKeyframes(ctx, units.J2000)
	if err == nil || len(kfs) != 0 {
		t.Errorf("GenerateKeyframes = %d frames, err %v; want 0 and an error", len(kfs), err)
	}
}

func TestPropagatorInvalidStep(t *testing.T) {
	prop := NewPropagator(NewKeplerProvider(), PropConfig{Workers: 1, Step: 0, Horizon: 10}, testLogger())
	if _, err := prop.GenerateKeyframes(context.Background(), units.J2000); err == nil {
		t.Error("expected error for zero step")
	}
}

// BenchmarkPropagateToJD benchmarks one full catalog keyframe.
func BenchmarkPropagateToJD(b *testing.B) {
	prop := NewPropagator(NewKeplerProvider(), PropConfig{Workers: 4, Step: 1, Horizon: 1}, testLogger())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := prop.PropagateToJD(ctx, units.J2000.Add(units.Days(i))); err != nil {
			b.Fatal(err)
		}
	}
}
