package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		level := slog.LevelInfo
		if probePath(c.Request.URL.Path) {
			level = slog.LevelDebug
		}

		attrs := []any{
			"component", "api",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", strconv.Itoa(c.Writer.Status()),
			"duration_ms", duration.Milliseconds(),
			"remote_ip", c.Request.RemoteAddr,
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		logger.Log(c.Request.Context(), level, "request", attrs...)
	}
}

// staticHandler serves the embedded frontend for GET requests outside /api.
func staticHandler(content fs.FS) gin.HandlerFunc {
	files := http.FileServer(http.FS(content))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead ||
			strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
