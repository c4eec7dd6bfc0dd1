package propagation

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

var (
	// ErrNonFinite is reported for a body whose computed position is NaN or Inf.
	ErrNonFinite = errors.New("non-finite position")

	// ErrOutsideOrbit is reported for a position beyond the body's
	// perihelion/aphelion shell.
	ErrOutsideOrbit = errors.New("position outside orbital shell")
)

// shellSlack is the relative tolerance applied to the apsides check.
const shellSlack = 1e-6

// WorkerPool bounds the number of bodies evaluated concurrently.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// PropagateBatch evaluates every body in ids at jd and returns the states in
// the order of ids along with success and error counts. Bodies that fail are
// logged and left out. Bodies not yet started when ctx ends are skipped
// without counting as errors.
func (wp *WorkerPool) PropagateBatch(ctx context.Context, provider EphemerisProvider, ids []catalog.BodyID, jd units.JulianDay) ([]BodyState, int, int) {
	if len(ids) == 0 {
		return nil, 0, 0
	}

	// One slot per body; each goroutine writes only its own index.
	slots := make([]BodyState, len(ids))
	errs := make([]error, len(ids))
	done := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(wp.workers)
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			slots[i], errs[i] = evaluate(provider, id, jd)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	states := make([]BodyState, 0, len(ids))
	var successCount, errorCount int
	for i := range ids {
		switch {
		case !done[i]:
		case errs[i] != nil:
			errorCount++
			wp.logger.Warn("propagation failed",
				"body", ids[i].String(),
				"jd", float64(jd),
				"error", errs[i],
			)
		default:
			successCount++
			states = append(states, slots[i])
		}
	}
	return states, successCount, errorCount
}

func evaluate(provider EphemerisProvider, id catalog.BodyID, jd units.JulianDay) (BodyState, error) {
	sv := provider.State(id, jd)
	if !sv.Position.Finite() {
		return BodyState{ID: id}, ErrNonFinite
	}
	if !transform.ValidateHeliocentric(catalog.ElementsOf(id), sv.Position, shellSlack) {
		return BodyState{ID: id}, ErrOutsideOrbit
	}
	return BodyState{
		ID:       id,
		Position: sv.Position,
		Spin:     transform.SpinAngle(id, jd),
	}, nil
}
