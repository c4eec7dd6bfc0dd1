package cache

import (
	"context"
	"time"

	"github.com/star/orrery/internal/metrics"
	"github.com/star/orrery/internal/propagation"
)

// seeked reports whether the session jumped since the cache was last built.
func (c *KeyframeCache) seeked() bool {
	return c.clock.Generation() != c.currentGeneration
}

// performCutover rebuilds the window around the session's new instant into a
// fresh map and swaps it in whole. Readers keep hitting the old entries until
// the swap, and Stats reports InCutover meanwhile. A cancelled rebuild leaves
// the old entries in place; a seek that lands during the rebuild is picked up
// on the next tick.
func (c *KeyframeCache) performCutover(ctx context.Context) {
	gen := c.clock.Generation()
	now := c.clock.NowJD()

	c.logger.Info("cache cutover starting",
		"old_generation", c.currentGeneration,
		"new_generation", gen,
		"jd", float64(now),
	)

	c.inCutover.Store(true)
	metrics.SetCacheCutoverActive(true)
	defer func() {
		c.inCutover.Store(false)
		metrics.SetCacheCutoverActive(false)
	}()

	start := time.Now()
	fresh := make(map[int64]*CacheEntry, c.windowFrames())
	n, err := c.buildWindow(ctx, c.key(now), nil, func(k int64, kf *propagation.Keyframe) {
		fresh[k] = &CacheEntry{Keyframe: kf, GeneratedAt: time.Now()}
	})
	if err != nil {
		c.logger.Warn("cutover cancelled", "error", err)
		return
	}

	c.replaceAll(fresh)
	c.currentGeneration = gen

	duration := time.Since(start)
	c.logger.Info("cache cutover complete",
		"duration_ms", duration.Milliseconds(),
		"entries_replaced", n,
	)
	metrics.ObserveCacheRegenerationDuration(duration)
}
