package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orrery_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orrery_propagation_duration_seconds",
			Help:    "Time to propagate every body to one Julian day.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	propagationBodies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_propagation_bodies_total",
			Help: "Body evaluations by outcome.",
		},
		[]string{"result"},
	)

	sessionJD = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_session_julian_day",
		Help: "Current simulated Julian day.",
	})

	sessionSpeed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_session_speed",
		Help: "Current simulation speed multiplier.",
	})

	sessionPlaying = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_session_playing",
		Help: "1 while the simulation clock is running.",
	})

	sessionSeeks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_session_seeks_total",
		Help: "Absolute date changes applied to the session.",
	})

	cacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_cache_entries",
		Help: "Keyframes held in the cache.",
	})

	cacheSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_cache_size_bytes",
		Help: "Estimated cache memory footprint.",
	})

	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_cache_hits_total",
		Help: "Keyframe cache hits.",
	})

	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_cache_misses_total",
		Help: "Keyframe cache misses.",
	})

	cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_cache_evictions_total",
		Help: "Keyframes evicted from the trailing edge.",
	})

	cacheRegenerationErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_cache_regeneration_errors_total",
		Help: "Keyframe generation failures.",
	})

	cacheRegenerationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_cache_regeneration_duration_seconds",
		Help:    "Duration of leading-edge generation and cutovers.",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
	})

	cacheCutoverActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_cache_cutover_active",
		Help: "1 while the cache is rebuilding after a seek.",
	})

	streamConnections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_stream_connections_total",
			Help: "SSE connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_streams_active",
		Help: "Open SSE streams.",
	})

	streamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_stream_errors_total",
			Help: "SSE errors by reason.",
		},
		[]string{"reason"},
	)

	streamMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_stream_messages_total",
		Help: "SSE messages sent.",
	})

	streamBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_stream_bytes_total",
		Help: "SSE bytes sent.",
	})

	controlConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_control_connections",
		Help: "Open control WebSocket connections.",
	})

	controlCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_control_commands_total",
			Help: "Control commands by operation and result.",
		},
		[]string{"op", "result"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		propagationDuration,
		propagationBodies,
		sessionJD,
		sessionSpeed,
		sessionPlaying,
		sessionSeeks,
		cacheEntries,
		cacheSizeBytes,
		cacheHits,
		cacheMisses,
		cacheEvictions,
		cacheRegenerationErrors,
		cacheRegenerationDuration,
		cacheCutoverActive,
		streamConnections,
		streamsActive,
		streamErrors,
		streamMessages,
		streamBytes,
		controlConnections,
		controlCommands,
		rateLimited,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and duration for each request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(c.Writer.Status())
		route := normalizeRoute(c.Request.URL.Path)

		httpRequestsTotal.WithLabelValues(route, c.Request.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, c.Request.Method).Observe(duration)
	}
}

var exactRoutes = map[string]bool{
	"/":                              true,
	"/healthz":                       true,
	"/readyz":                        true,
	"/metrics":                       true,
	"/api/v1/bodies":                 true,
	"/api/v1/ephemeris":              true,
	"/api/v1/time/convert":           true,
	"/api/v1/session":                true,
	"/api/v1/session/play":           true,
	"/api/v1/session/pause":          true,
	"/api/v1/session/speed":          true,
	"/api/v1/session/date":           true,
	"/api/v1/session/ws":             true,
	"/api/v1/cache/stats":            true,
	"/api/v1/cache/keyframes/latest": true,
	"/api/v1/cache/keyframes/at":     true,
	"/api/v1/stream/keyframes":       true,
}

var staticAssets = map[string]bool{
	"/app.js":     true,
	"/styles.css": true,
}

// normalizeRoute maps a request path to a bounded set of metric labels.
// Body identifiers collapse to {id}; anything unrecognised becomes "other".
func normalizeRoute(path string) string {
	if exactRoutes[path] {
		return path
	}
	if staticAssets[path] {
		return "/{asset}"
	}

	rest, ok := strings.CutPrefix(path, "/api/v1/bodies/")
	if !ok || rest == "" {
		return "other"
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		return "/api/v1/bodies/{id}"
	case len(parts) == 2 && (parts[1] == "state" || parts[1] == "orbit"):
		return "/api/v1/bodies/{id}/" + parts[1]
	case len(parts) == 3 && parts[1] == "relative":
		return "/api/v1/bodies/{id}/relative/{target}"
	}
	return "other"
}

// RecordPropagation records one keyframe propagation.
func RecordPropagation(d time.Duration, success, errors int) {
	propagationDuration.Observe(d.Seconds())
	propagationBodies.WithLabelValues("success").Add(float64(success))
	propagationBodies.WithLabelValues("error").Add(float64(errors))
}

// SetSessionState publishes the simulation clock.
func SetSessionState(jd, speed float64, playing bool) {
	sessionJD.Set(jd)
	sessionSpeed.Set(speed)
	sessionPlaying.Set(boolToFloat(playing))
}

func IncSessionSeeks() { sessionSeeks.Inc() }

func SetCacheEntries(n int)         { cacheEntries.Set(float64(n)) }
func SetCacheSizeBytes(n int64)     { cacheSizeBytes.Set(float64(n)) }
func IncCacheHits()                 { cacheHits.Inc() }
func IncCacheMisses()               { cacheMisses.Inc() }
func AddCacheEvictions(n int)       { cacheEvictions.Add(float64(n)) }
func IncCacheRegenerationErrors()   { cacheRegenerationErrors.Inc() }
func SetCacheCutoverActive(on bool) { cacheCutoverActive.Set(boolToFloat(on)) }
func ObserveCacheRegenerationDuration(d time.Duration) {
	cacheRegenerationDuration.Observe(d.Seconds())
}

func IncStreamConnections(event string) { streamConnections.WithLabelValues(event).Inc() }
func IncStreamsActive()                 { streamsActive.Inc() }
func DecStreamsActive()                 { streamsActive.Dec() }
func IncStreamErrors(reason string)     { streamErrors.WithLabelValues(reason).Inc() }
func IncStreamMessages()                { streamMessages.Inc() }
func AddStreamBytes(n int64)            { streamBytes.Add(float64(n)) }

func IncControlConnections() { controlConnections.Inc() }
func DecControlConnections() { controlConnections.Dec() }

// IncControlCommands counts a control command; result is "ok", "error" or
// "rate_limited".
func IncControlCommands(op, result string) {
	controlCommands.WithLabelValues(op, result).Inc()
}

func IncRateLimited(scope string) { rateLimited.WithLabelValues(scope).Inc() }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
