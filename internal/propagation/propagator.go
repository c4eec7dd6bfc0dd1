package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/metrics"
	"github.com/star/orrery/internal/units"
)

// Propagator orchestrates keyframe generation for the body catalog.
type Propagator struct {
	provider EphemerisProvider
	bodies   []catalog.BodyID
	pool     *WorkerPool
	config   PropConfig
	logger   *slog.Logger
}

// NewPropagator creates a new propagation orchestrator over every catalog body.
func NewPropagator(provider EphemerisProvider, config PropConfig, logger *slog.Logger) *Propagator {
	return &Propagator{
		provider: provider,
		bodies:   catalog.All(),
		pool:     NewWorkerPool(config.Workers, logger),
		config:   config,
		logger:   logger,
	}
}

// Provider returns the ephemeris provider backing the propagator.
func (p *Propagator) Provider() EphemerisProvider {
	return p.provider
}

// Config returns the propagation configuration.
func (p *Propagator) Config() PropConfig {
	return p.config
}

// PropagateToJD generates a single keyframe at jd.
func (p *Propagator) PropagateToJD(ctx context.Context, jd units.JulianDay) (*Keyframe, error) {
	start := time.Now()
	states, successCount, errorCount := p.pool.PropagateBatch(ctx, p.provider, p.bodies, jd)
	duration := time.Since(start)

	metrics.RecordPropagation(duration, successCount, errorCount)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Debug("propagation complete",
		"jd", float64(jd),
		"success", successCount,
		"errors", errorCount,
		"duration_us", duration.Microseconds(),
	)

	return &Keyframe{
		JD:     jd,
		Bodies: states,
	}, nil
}

// GenerateKeyframes generates keyframes from start over the configured horizon
// at the configured step interval.
func (p *Propagator) GenerateKeyframes(ctx context.Context, start units.JulianDay) ([]*Keyframe, error) {
	if p.config.Step <= 0 {
		return nil, fmt.Errorf("invalid step %v days", p.config.Step)
	}

	numFrames := int(p.config.Horizon/p.config.Step) + 1
	keyframes := make([]*Keyframe, 0, numFrames)

	for i := 0; i < numFrames; i++ {
		select {
		case <-ctx.Done():
			return keyframes, ctx.Err()
		default:
		}

		jd := start.Add(units.Days(i) * p.config.Step)
		kf, err := p.PropagateToJD(ctx, jd)
		if err != nil {
			return keyframes, fmt.Errorf("keyframe %d at JD %.5f: %w", i, float64(jd), err)
		}
		keyframes = append(keyframes, kf)
	}

	return keyframes, nil
}
