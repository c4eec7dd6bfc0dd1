package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Config holds authentication configuration.
type Config struct {
	Enabled bool
	Token   string
}

// Middleware enforces Bearer token auth on requests that change the shared
// session when auth is enabled. Reads stay public.
func Middleware(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || !isProtected(c.Request) {
			c.Next()
			return
		}

		if !Authorized(c.Request, cfg.Token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}

// isProtected reports whether r mutates state. The control websocket is
// protected as a whole since every connection may issue commands.
func isProtected(r *http.Request) bool {
	if r.URL.Path == "/api/v1/session/ws" {
		return true
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Authorized checks a Bearer token in the Authorization header, falling back
// to the access_token query parameter since browsers cannot set headers on
// websocket handshakes.
func Authorized(r *http.Request, token string) bool {
	got := r.URL.Query().Get("access_token")
	if header := r.Header.Get("Authorization"); header != "" {
		var ok bool
		got, ok = strings.CutPrefix(header, "Bearer ")
		if !ok {
			return false
		}
	}
	if got == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}
