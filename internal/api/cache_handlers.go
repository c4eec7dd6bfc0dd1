package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	errNoCache    = errors.New("no keyframe cache configured")
	errNoKeyframe = errors.New("keyframe not cached")
)

func (h *handlers) requireCache(c *gin.Context) bool {
	if h.cache == nil {
		abortError(c, http.StatusServiceUnavailable, errNoCache)
		return false
	}
	return true
}

func (h *handlers) cacheStats(c *gin.Context) {
	if !h.requireCache(c) {
		return
	}
	cfg := h.cache.Config()
	c.JSON(http.StatusOK, gin.H{
		"stats":        h.cache.Stats(),
		"step_days":    float64(cfg.Step),
		"horizon_days": float64(cfg.Horizon),
		"buffer_days":  float64(cfg.Buffer),
	})
}

func (h *handlers) latestKeyframe(c *gin.Context) {
	if !h.requireCache(c) {
		return
	}
	kf := h.cache.GetLatest()
	if kf == nil {
		abortError(c, http.StatusNotFound, errNoKeyframe)
		return
	}
	c.JSON(http.StatusOK, newKeyframeResponse(kf))
}

// keyframeAt returns the cached keyframe for the step containing jd.
func (h *handlers) keyframeAt(c *gin.Context) {
	if !h.requireCache(c) {
		return
	}
	if c.Query("jd") == "" && c.Query("date") == "" {
		abortError(c, http.StatusBadRequest, errors.New("jd or date parameter is required"))
		return
	}
	jd, ok := h.instant(c)
	if !ok {
		return
	}
	kf := h.cache.Get(jd)
	if kf == nil {
		abortError(c, http.StatusNotFound, errNoKeyframe)
		return
	}
	c.JSON(http.StatusOK, newKeyframeResponse(kf))
}
