package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/units"
)

var errNoSession = errors.New("no session configured")

type speedRequest struct {
	Speed *float64 `json:"speed"`
}

type dateRequest struct {
	JD   *float64 `json:"jd"`
	Date string   `json:"date"`
}

func (h *handlers) sessionState(st simtime.State) sessionResponse {
	return sessionResponse{State: st, Date: simtime.FormatDate(st.JD), Generation: h.session.Generation()}
}

func (h *handlers) requireSession(c *gin.Context) bool {
	if h.session == nil {
		abortError(c, http.StatusServiceUnavailable, errNoSession)
		return false
	}
	return true
}

func (h *handlers) getSession(c *gin.Context) {
	if !h.requireSession(c) {
		return
	}
	c.JSON(http.StatusOK, h.sessionState(h.session.Snapshot()))
}

func (h *handlers) play(c *gin.Context) {
	if !h.requireSession(c) {
		return
	}
	c.JSON(http.StatusOK, h.sessionState(h.session.Play()))
}

func (h *handlers) pause(c *gin.Context) {
	if !h.requireSession(c) {
		return
	}
	c.JSON(http.StatusOK, h.sessionState(h.session.Pause()))
}

// setSpeed accepts {"speed": x} or ?speed=x. Out-of-range values are clamped.
func (h *handlers) setSpeed(c *gin.Context) {
	if !h.requireSession(c) {
		return
	}
	var req speedRequest
	if v := c.Query("speed"); v != "" {
		speed, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(speed) {
			abortError(c, http.StatusBadRequest, errors.New("invalid speed parameter"))
			return
		}
		req.Speed = &speed
	} else if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.Speed == nil {
		abortError(c, http.StatusBadRequest, errors.New("speed is required"))
		return
	}
	c.JSON(http.StatusOK, h.sessionState(h.session.SetSpeed(*req.Speed)))
}

// setDate accepts {"jd": x}, {"date": "..."} or the same as query parameters.
func (h *handlers) setDate(c *gin.Context) {
	if !h.requireSession(c) {
		return
	}

	var jd units.JulianDay
	if c.Query("jd") != "" || c.Query("date") != "" {
		var ok bool
		if jd, ok = h.instant(c); !ok {
			return
		}
	} else {
		var req dateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortError(c, http.StatusBadRequest, errors.New("invalid request body"))
			return
		}
		switch {
		case req.JD != nil:
			jd = units.JulianDay(*req.JD)
		case req.Date != "":
			parsed, err := simtime.ParseDate(req.Date)
			if err != nil {
				abortError(c, http.StatusBadRequest, err)
				return
			}
			jd = parsed
		default:
			abortError(c, http.StatusBadRequest, errors.New("jd or date is required"))
			return
		}
	}

	c.JSON(http.StatusOK, h.sessionState(h.session.SetDate(jd)))
}
