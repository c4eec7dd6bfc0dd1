package cache

import (
	"context"
	"time"

	"github.com/star/orrery/internal/metrics"
	"github.com/star/orrery/internal/propagation"
)

// Start begins the background cache maintenance loop. It performs an initial
// warmup (filling the full [now, now+horizon] window), then continuously:
//   - Generates missing keyframes up to the leading edge
//   - Evicts expired entries from the trailing edge
//   - Detects session seeks and triggers cutover
//
// Blocks until ctx is cancelled.
func (c *KeyframeCache) Start(ctx context.Context) {
	c.warmup(ctx)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cache generator stopped")
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// warmup fills the cache with keyframes for [now, now+horizon].
func (c *KeyframeCache) warmup(ctx context.Context) {
	c.currentGeneration = c.clock.Generation()
	now := c.clock.NowJD()

	c.logger.Info("cache warmup starting",
		"frames", c.windowFrames(),
		"from_jd", float64(c.RoundToStep(now)),
		"to_jd", float64(c.RoundToStep(now.Add(c.config.Horizon))),
	)

	start := time.Now()
	generated := c.fillWindow(ctx)

	c.logger.Info("cache warmup complete",
		"generated", generated,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// tick runs one iteration of the maintenance loop.
func (c *KeyframeCache) tick(ctx context.Context) {
	if c.seeked() {
		c.performCutover(ctx)
		return
	}

	start := time.Now()
	if n := c.fillWindow(ctx); n > 0 {
		duration := time.Since(start)
		metrics.ObserveCacheRegenerationDuration(duration)
		c.logger.Debug("leading edge generated",
			"frames", n,
			"duration_us", duration.Microseconds(),
		)
	}

	c.evictExpired()
}

// windowFrames is the number of steps in [now, now+horizon].
func (c *KeyframeCache) windowFrames() int {
	return int(c.config.Horizon/c.config.Step) + 1
}

// fillWindow generates every missing keyframe in the window around the
// clock's current Julian day and returns how many were added. At high speed
// the clock can cross several steps between ticks.
func (c *KeyframeCache) fillWindow(ctx context.Context) int {
	n, _ := c.buildWindow(ctx, c.key(c.clock.NowJD()), c.has, func(_ int64, kf *propagation.Keyframe) {
		c.put(kf)
	})
	return n
}

// buildWindow propagates each step of the window starting at step index
// first, skipping indices for which skip reports true, and hands every
// keyframe to emit. It returns the number emitted and ctx's error if the
// window was cut short.
func (c *KeyframeCache) buildWindow(ctx context.Context, first int64, skip func(int64) bool, emit func(int64, *propagation.Keyframe)) (int, error) {
	emitted := 0
	for k := first; k < first+int64(c.windowFrames()); k++ {
		if err := ctx.Err(); err != nil {
			return emitted, err
		}
		if skip != nil && skip(k) {
			continue
		}

		target := c.keyJD(k)
		kf, err := c.prop.PropagateToJD(ctx, target)
		if err != nil {
			c.logger.Warn("keyframe generation failed", "jd", float64(target), "error", err)
			metrics.IncCacheRegenerationErrors()
			continue
		}
		emit(k, kf)
		emitted++
	}
	return emitted, nil
}
