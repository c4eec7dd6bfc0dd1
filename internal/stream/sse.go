// Package stream implements Server-Sent Events (SSE) streaming of body
// keyframe batches. Clients connect via GET /api/v1/stream/keyframes and
// receive the cached keyframe at the session's current Julian day as the
// simulation runs.
//
// SSE message format:
//
//	data: {"type":"keyframe_batch","jd":2451545,"t":"2000-01-01T12:00:00Z","frame":"ECLIPTIC_KM","bodies":[...]}\n\n
//
// First message is always metadata, and it is repeated after every session
// seek:
//
//	data: {"type":"metadata","jd":2451545,"speed":10,"playing":true,"generation":0,...}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent timeout.
// Reconnecting clients receive a fresh metadata message on each connection.
package stream

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/star/orrery/internal/cache"
	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/httputil"
	"github.com/star/orrery/internal/metrics"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/ratelimit"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxConcurrent      int           // Global stream cap (default: 1000).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Use X-Forwarded-For for the per-IP limit.
	Scale              units.Scale   // Render frame scaling.
}

// Session is the simulation clock the stream follows.
type Session interface {
	Snapshot() simtime.State
	Generation() uint64
}

// Frames selectable with the frame query parameter.
const (
	FrameEcliptic = "ECLIPTIC_KM"
	FrameRender   = "RENDER"
)

// Handler manages SSE streaming connections.
type Handler struct {
	cache   *cache.KeyframeCache
	session Session
	config  Config
	limiter *ratelimit.ConnLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(kfCache *cache.KeyframeCache, session Session, config Config, logger *slog.Logger) *Handler {
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		cache:   kfCache,
		session: session,
		config:  config,
		limiter: ratelimit.NewConnLimiter(config.MaxConcurrentPerIP, config.MaxConcurrent),
		logger:  logger,
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// streamParams are the query options of a keyframe stream.
type streamParams struct {
	interval time.Duration // between cache polls
	trail    int           // past keyframes attached per body
	frame    string
}

// intParam parses an optional integer query parameter within [lo, hi].
func intParam(r *http.Request, name string, def, lo, hi int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func parseStreamParams(r *http.Request) (streamParams, string) {
	interval, ok := intParam(r, "interval", 500, 50, 5000)
	if !ok {
		return streamParams{}, "invalid interval parameter, must be 50-5000 ms"
	}
	trail, ok := intParam(r, "trail", 20, 0, 120)
	if !ok {
		return streamParams{}, "invalid trail parameter, must be 0-120"
	}

	p := streamParams{
		interval: time.Duration(interval) * time.Millisecond,
		trail:    trail,
		frame:    FrameEcliptic,
	}
	switch r.URL.Query().Get("frame") {
	case "", "ecliptic":
	case "render":
		p.frame = FrameRender
	default:
		return streamParams{}, "invalid frame parameter, must be ecliptic or render"
	}
	return p, ""
}

// HandleKeyframes serves the SSE keyframe stream.
// GET /api/v1/stream/keyframes?interval=500&trail=20&frame=render
func (h *Handler) HandleKeyframes(w http.ResponseWriter, r *http.Request) {
	params, msg := parseStreamParams(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	release, ok := h.limiter.Acquire(ip)
	if !ok {
		metrics.IncStreamErrors("rate_limit")
		metrics.IncRateLimited("stream")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.Active(ip),
			"total", h.limiter.Total(),
		)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval_ms", params.interval.Milliseconds(),
		"trail", params.trail,
		"frame", params.frame,
	)

	var c *eventWriter
	defer func() {
		release()
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		attrs := []any{
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		}
		if c != nil {
			attrs = append(attrs, "events", c.events, "bytes", c.bytes)
		}
		h.logger.Info("stream disconnected", attrs...)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	c = newEventWriter(w, flusher, ip, h.logger)
	c.clearDeadline()

	// Jittered retry interval (3-7s) prevents reconnection storms when the
	// server restarts.
	if err := c.retry(time.Duration(3000+rand.Intn(4000)) * time.Millisecond); err != nil {
		return
	}

	generation := h.session.Generation()
	if err := c.sendJSON(h.buildMetadata(generation)); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	ticker := time.NewTicker(params.interval)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	lastJD := units.JulianDay(-1)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if g := h.session.Generation(); g != generation {
				generation = g
				lastJD = -1
				if err := c.sendJSON(h.buildMetadata(g)); err != nil {
					metrics.IncStreamErrors("send_error")
					h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
					return
				}
			}

			now := h.session.Snapshot().JD
			kf := h.cache.Get(now)
			if kf == nil {
				metrics.IncStreamErrors("cache_miss")
				h.logger.Debug("stream cache miss",
					"jd", float64(h.cache.RoundToStep(now)),
					"remote_ip", ip,
				)
				continue
			}
			if kf.JD == lastJD {
				continue
			}

			var trailKFs []*propagation.Keyframe
			if params.trail > 0 {
				trailKFs = h.cache.GetRecent(kf.JD-units.JulianDay(h.cache.Config().Step), params.trail)
			}

			batch := buildBatchMessage(kf, trailKFs, params.frame, h.config.Scale)
			data, err := json.Marshal(batch)
			if err != nil {
				metrics.IncStreamErrors("marshal_error")
				h.logger.Warn("stream marshal error", "remote_ip", ip, "error", err)
				continue
			}
			if err := c.sendData(data); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
			lastJD = kf.JD

			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.keepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

func (h *Handler) buildMetadata(generation uint64) metadataMessage {
	st := h.session.Snapshot()
	cfg := h.cache.Config()

	bodies := make([]bodyMeta, 0, len(catalog.All()))
	for _, id := range catalog.All() {
		b := catalog.Get(id)
		bodies = append(bodies, bodyMeta{
			ID:     id,
			Name:   b.Name,
			Color:  b.Color,
			Radius: h.config.Scale.Radius(b.RadiusKm),
		})
	}

	return metadataMessage{
		Type:        "metadata",
		JD:          st.JD,
		T:           simtime.FormatDate(st.JD),
		Speed:       st.Speed,
		Playing:     st.Playing,
		Generation:  generation,
		StepDays:    cfg.Step,
		HorizonDays: cfg.Horizon,
		Bodies:      bodies,
	}
}

// buildBatchMessage formats a keyframe into the SSE batch payload.
// If trailKFs is non-empty, each body includes past positions (oldest first).
func buildBatchMessage(kf *propagation.Keyframe, trailKFs []*propagation.Keyframe, frame string, scale units.Scale) keyframeBatchMessage {
	project := func(p units.VecKm) [3]float64 {
		if frame == FrameRender {
			return transform.ToRenderFrame(p, scale).Array()
		}
		return p.Array()
	}

	// Index: body ID -> trail positions (oldest first).
	var trailIndex map[catalog.BodyID][][3]float64
	if len(trailKFs) > 0 {
		trailIndex = make(map[catalog.BodyID][][3]float64, len(kf.Bodies))
		for _, tkf := range trailKFs {
			for _, b := range tkf.Bodies {
				trailIndex[b.ID] = append(trailIndex[b.ID], project(b.Position))
			}
		}
	}

	bodies := make([]bodyPayload, len(kf.Bodies))
	for i, b := range kf.Bodies {
		bodies[i] = bodyPayload{
			ID:   b.ID,
			P:    project(b.Position),
			Spin: b.Spin,
		}
		if trailIndex != nil && !catalog.ElementsOf(b.ID).Fixed() {
			bodies[i].Tr = trailIndex[b.ID]
		}
	}
	return keyframeBatchMessage{
		Type:   "keyframe_batch",
		JD:     kf.JD,
		T:      simtime.FormatDate(kf.JD),
		Frame:  frame,
		Bodies: bodies,
	}
}

// SSE message payload types.

type metadataMessage struct {
	Type        string          `json:"type"`
	JD          units.JulianDay `json:"jd"`
	T           string          `json:"t"`
	Speed       float64         `json:"speed"`
	Playing     bool            `json:"playing"`
	Generation  uint64          `json:"generation"`
	StepDays    units.Days      `json:"step_days"`
	HorizonDays units.Days      `json:"horizon_days"`
	Bodies      []bodyMeta      `json:"bodies"`
}

type bodyMeta struct {
	ID     catalog.BodyID    `json:"id"`
	Name   string            `json:"name"`
	Color  string            `json:"color"`
	Radius units.RenderUnits `json:"radius"`
}

type keyframeBatchMessage struct {
	Type   string          `json:"type"`
	JD     units.JulianDay `json:"jd"`
	T      string          `json:"t"`
	Frame  string          `json:"frame"`
	Bodies []bodyPayload   `json:"bodies"`
}

type bodyPayload struct {
	ID   catalog.BodyID `json:"id"`
	P    [3]float64     `json:"p"`
	Spin units.Radians  `json:"spin"`
	Tr   [][3]float64   `json:"tr,omitempty"`
}
