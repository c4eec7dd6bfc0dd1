// Package cache provides an in-memory keyframe cache with a rolling window
// over simulated time.
//
// The cache maintains keyframes for [now, now+horizon] of the session's Julian
// day continuously. A background worker generates missing keyframes at the
// leading edge and evicts expired entries from the trailing edge. When the
// session seeks, the cache is rebuilt around the new instant without
// interrupting reads.
package cache

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/star/orrery/internal/metrics"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/units"
)

// Clock is the simulated time source the cache follows. Generation changes
// whenever the clock jumps instead of advancing.
type Clock interface {
	NowJD() units.JulianDay
	Generation() uint64
}

// Config holds cache configuration.
type Config struct {
	Step     units.Days    // Keyframe interval (default: 1 day)
	Horizon  units.Days    // How far ahead to cache (default: 30 days)
	Buffer   units.Days    // Keep entries this long behind now (default: 10 days)
	Interval time.Duration // Maintenance tick in wall-clock time (default: 250ms)
}

// CacheEntry wraps a keyframe with generation metadata.
type CacheEntry struct {
	Keyframe    *propagation.Keyframe
	GeneratedAt time.Time
}

// KeyframeCache is an in-memory cache of keyframes keyed by step index.
// Safe for concurrent use by multiple goroutines.
type KeyframeCache struct {
	mu      sync.RWMutex
	entries map[int64]*CacheEntry

	config Config
	prop   *propagation.Propagator
	clock  Clock
	logger *slog.Logger

	// Session generation the entries were built for. Owned by the generator.
	currentGeneration uint64

	// Counters (lock-free).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	inCutover atomic.Bool
}

// NewKeyframeCache creates a new keyframe cache.
func NewKeyframeCache(config Config, prop *propagation.Propagator, clock Clock, logger *slog.Logger) *KeyframeCache {
	if config.Interval <= 0 {
		config.Interval = 250 * time.Millisecond
	}

	logger.Info("cache initialized",
		"step_days", float64(config.Step),
		"horizon_days", float64(config.Horizon),
		"buffer_days", float64(config.Buffer),
		"interval_ms", config.Interval.Milliseconds(),
	)

	return &KeyframeCache{
		entries: make(map[int64]*CacheEntry),
		config:  config,
		prop:    prop,
		clock:   clock,
		logger:  logger,
	}
}

// stepEpsilon absorbs rounding in keyJD so a step's own start maps back to it.
const stepEpsilon = 1e-6

// key returns the index of the step containing jd.
func (c *KeyframeCache) key(jd units.JulianDay) int64 {
	return int64(math.Floor(float64(jd)/float64(c.config.Step) + stepEpsilon))
}

// keyJD returns the Julian day a step index starts at.
func (c *KeyframeCache) keyJD(k int64) units.JulianDay {
	return units.JulianDay(float64(k) * float64(c.config.Step))
}

// RoundToStep rounds a Julian day down to the nearest step boundary.
// This normalizes lookups so they hit consistently.
func (c *KeyframeCache) RoundToStep(jd units.JulianDay) units.JulianDay {
	return c.keyJD(c.key(jd))
}

// Config returns the cache configuration.
func (c *KeyframeCache) Config() Config {
	return c.config
}

// Get returns the keyframe for the step containing jd, or nil if not cached.
func (c *KeyframeCache) Get(jd units.JulianDay) *propagation.Keyframe {
	c.mu.RLock()
	entry := c.entries[c.key(jd)]
	c.mu.RUnlock()
	return c.record(entry)
}

// record counts a lookup as a hit or miss and unwraps the entry.
func (c *KeyframeCache) record(entry *CacheEntry) *propagation.Keyframe {
	if entry == nil {
		c.misses.Add(1)
		metrics.IncCacheMisses()
		return nil
	}
	c.hits.Add(1)
	metrics.IncCacheHits()
	return entry.Keyframe
}

// GetRecent returns up to count keyframes before (and including) the step
// containing jd, ordered oldest-first. Used to build orbital trails.
func (c *KeyframeCache) GetRecent(jd units.JulianDay, count int) []*propagation.Keyframe {
	if count <= 0 {
		return nil
	}

	k := c.key(jd)

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*propagation.Keyframe, 0, count)
	for i := int64(count - 1); i >= 0; i-- {
		if entry, ok := c.entries[k-i]; ok {
			result = append(result, entry.Keyframe)
		}
	}
	return result
}

// latestLookback bounds how many steps GetLatest searches behind now.
const latestLookback = 10

// GetLatest returns the keyframe closest to (but not after) the clock's
// current Julian day.
func (c *KeyframeCache) GetLatest() *propagation.Keyframe {
	now := c.key(c.clock.NowJD())

	c.mu.RLock()
	var entry *CacheEntry
	for k := now; k > now-latestLookback && entry == nil; k-- {
		entry = c.entries[k]
	}
	c.mu.RUnlock()
	return c.record(entry)
}

func (c *KeyframeCache) has(k int64) bool {
	c.mu.RLock()
	_, ok := c.entries[k]
	c.mu.RUnlock()
	return ok
}

// put stores a keyframe in the cache. Caller must not hold mu.
func (c *KeyframeCache) put(kf *propagation.Keyframe) {
	entry := &CacheEntry{
		Keyframe:    kf,
		GeneratedAt: time.Now(),
	}

	c.mu.Lock()
	c.entries[c.key(kf.JD)] = entry
	c.mu.Unlock()

	c.updateMetrics()
}

// evictExpired removes entries older than now - buffer.
func (c *KeyframeCache) evictExpired() int {
	cutoff := c.key(c.clock.NowJD().Add(-c.config.Buffer))
	var removed int

	c.mu.Lock()
	for k := range c.entries {
		if k < cutoff {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddCacheEvictions(removed)
		c.updateMetrics()
		c.logger.Debug("cache eviction", "entries_removed", removed)
	}

	return removed
}

// replaceAll atomically replaces all cache entries (used during cutover).
func (c *KeyframeCache) replaceAll(newEntries map[int64]*CacheEntry) {
	c.mu.Lock()
	c.entries = newEntries
	c.mu.Unlock()
	c.updateMetrics()
}

// Stats returns current cache statistics.
func (c *KeyframeCache) Stats() CacheStats {
	c.mu.RLock()
	count := len(c.entries)

	var oldest, newest int64
	first := true
	for k := range c.entries {
		if first || k < oldest {
			oldest = k
		}
		if first || k > newest {
			newest = k
		}
		first = false
	}
	c.mu.RUnlock()

	stats := CacheStats{
		Entries:   count,
		SizeBytes: c.estimateSizeBytes(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		InCutover: c.inCutover.Load(),
	}
	if count > 0 {
		stats.OldestJD = c.keyJD(oldest)
		stats.NewestJD = c.keyJD(newest)
	}
	return stats
}

// CacheStats holds cache statistics for the stats endpoint.
type CacheStats struct {
	Entries   int             `json:"entries"`
	SizeBytes int64           `json:"size_bytes"`
	OldestJD  units.JulianDay `json:"oldest_jd"`
	NewestJD  units.JulianDay `json:"newest_jd"`
	Hits      int64           `json:"hits"`
	Misses    int64           `json:"misses"`
	Evictions int64           `json:"evictions"`
	InCutover bool            `json:"in_cutover"`
}

// Rough per-item footprints for size estimation.
var (
	bodyStateSize = int64(unsafe.Sizeof(propagation.BodyState{}))
	keyframeSize  = int64(unsafe.Sizeof(propagation.Keyframe{}))
	entrySize     = int64(unsafe.Sizeof(CacheEntry{}))
)

// mapSlotSize approximates the map's cost per entry: key, value pointer and
// bucket overhead.
const mapSlotSize = 24

// estimateSizeBytes returns a rough estimate of the cache memory footprint.
func (c *KeyframeCache) estimateSizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := int64(len(c.entries)) * (entrySize + mapSlotSize)
	for _, entry := range c.entries {
		if kf := entry.Keyframe; kf != nil {
			total += keyframeSize + int64(len(kf.Bodies))*bodyStateSize
		}
	}
	return total
}

// updateMetrics publishes the current cache size.
func (c *KeyframeCache) updateMetrics() {
	c.mu.RLock()
	count := len(c.entries)
	c.mu.RUnlock()

	metrics.SetCacheEntries(count)
	metrics.SetCacheSizeBytes(c.estimateSizeBytes())
}
