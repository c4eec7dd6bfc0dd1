package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/star/orrery/internal/auth"
	"github.com/star/orrery/internal/cache"
	"github.com/star/orrery/internal/control"
	"github.com/star/orrery/internal/health"
	"github.com/star/orrery/internal/metrics"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/ratelimit"
	"github.com/star/orrery/internal/session"
	"github.com/star/orrery/internal/stream"
	"github.com/star/orrery/internal/units"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr        string
	CORSOrigins []string
	TrustProxy  bool
	Auth        auth.Config
	RateLimit   ratelimit.Config
	Scale       units.Scale
}

// Deps are the components the routes serve.
type Deps struct {
	Provider propagation.EphemerisProvider
	Session  *session.Session
	Cache    *cache.KeyframeCache
	Stream   *stream.Handler
	Control  *control.Handler
	Web      fs.FS // optional static frontend
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	limiter    *ratelimit.IPRateLimiter
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if cfg.Scale == (units.Scale{}) {
		cfg.Scale = units.DefaultScale()
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Middleware chain: metrics -> logging -> cors -> rate limit -> auth -> routes.
	r.Use(metrics.Middleware())
	r.Use(loggingMiddleware(logger))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	s := &Server{engine: r, logger: logger}
	if cfg.RateLimit.Enabled {
		s.limiter = ratelimit.FromConfig(cfg.RateLimit)
		// Long-lived streams are limited by their own handlers.
		r.Use(s.limiter.Middleware(cfg.TrustProxy,
			"/healthz", "/readyz", "/metrics",
			"/api/v1/stream/keyframes", "/api/v1/session/ws",
		))
	}
	r.Use(auth.Middleware(cfg.Auth))

	h := &handlers{
		provider: deps.Provider,
		session:  deps.Session,
		cache:    deps.Cache,
		scale:    cfg.Scale,
		logger:   logger,
	}

	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz(h.ready))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/bodies", h.listBodies)
		v1.GET("/bodies/:id", h.getBody)
		v1.GET("/bodies/:id/state", h.bodyState)
		v1.GET("/bodies/:id/orbit", h.bodyOrbit)
		v1.GET("/bodies/:id/relative/:target", h.bodyRelative)
		v1.GET("/ephemeris", h.ephemeris)
		v1.GET("/time/convert", h.convertTime)

		v1.GET("/session", h.getSession)
		v1.POST("/session/play", h.play)
		v1.POST("/session/pause", h.pause)
		v1.POST("/session/speed", h.setSpeed)
		v1.POST("/session/date", h.setDate)

		v1.GET("/cache/stats", h.cacheStats)
		v1.GET("/cache/keyframes/latest", h.latestKeyframe)
		v1.GET("/cache/keyframes/at", h.keyframeAt)

		if deps.Stream != nil {
			v1.GET("/stream/keyframes", gin.WrapF(deps.Stream.HandleKeyframes))
		}
		if deps.Control != nil {
			v1.GET("/session/ws", gin.WrapH(deps.Control))
		}
	}

	if deps.Web != nil {
		r.NoRoute(staticHandler(deps.Web))
	} else {
		r.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		})
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: SSE and websocket responses are long-lived and
		// manage their own deadlines.
		IdleTimeout: 120 * time.Second,
	}
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Limiter returns the HTTP rate limiter, or nil when rate limiting is off.
func (s *Server) Limiter() *ratelimit.IPRateLimiter {
	return s.limiter
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}
