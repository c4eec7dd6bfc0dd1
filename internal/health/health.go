package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

// Readyz returns 200 "ready\n" once ready reports true, 503 before that.
// A nil ready func means always ready.
func Readyz(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil && !ready() {
			c.String(http.StatusServiceUnavailable, "not ready\n")
			return
		}
		c.String(http.StatusOK, "ready\n")
	}
}
