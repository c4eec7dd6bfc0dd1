package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/star/orrery/internal/cache"
	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/session"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/units"
)

type handlers struct {
	provider propagation.EphemerisProvider
	session  *session.Session
	cache    *cache.KeyframeCache
	scale    units.Scale
	logger   *slog.Logger
}

func (h *handlers) ready() bool {
	return h.cache == nil || h.cache.Stats().Entries > 0
}

func abortError(c *gin.Context, code int, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// bodyParam resolves a path parameter to a body, answering 404 when unknown.
func bodyParam(c *gin.Context, name string) (catalog.BodyID, bool) {
	id, err := catalog.ParseBodyID(c.Param(name))
	if err != nil {
		abortError(c, http.StatusNotFound, err)
		return 0, false
	}
	return id, true
}

// instant reads ?jd= or ?date=, defaulting to the session's current time.
func (h *handlers) instant(c *gin.Context) (units.JulianDay, bool) {
	if v := c.Query("jd"); v != "" {
		jd, err := simtime.ParseJD(v)
		if err != nil {
			abortError(c, http.StatusBadRequest, err)
			return 0, false
		}
		return jd, true
	}
	if v := c.Query("date"); v != "" {
		jd, err := simtime.ParseDate(v)
		if err != nil {
			abortError(c, http.StatusBadRequest, err)
			return 0, false
		}
		return jd, true
	}
	if c.Query("year") != "" {
		jd, err := calendarQuery(c)
		if err != nil {
			abortError(c, http.StatusBadRequest, err)
			return 0, false
		}
		return jd, true
	}
	if h.session != nil {
		return h.session.NowJD(), true
	}
	return units.J2000, true
}

// calendarQuery reads ?year=&month=&day= where day may be fractional and
// month and day default to 1.
func calendarQuery(c *gin.Context) (units.JulianDay, error) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", simtime.ErrInvalidDate, c.Query("year"))
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", "1"))
	if err != nil {
		return 0, fmt.Errorf("%w: month %q", simtime.ErrInvalidDate, c.Query("month"))
	}
	day, err := strconv.ParseFloat(c.DefaultQuery("day", "1"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: day %q", simtime.ErrInvalidDate, c.Query("day"))
	}
	return simtime.FromCalendar(year, month, day)
}

func (h *handlers) listBodies(c *gin.Context) {
	ids := catalog.All()
	bodies := make([]bodyResponse, len(ids))
	for i, id := range ids {
		bodies[i] = newBodyResponse(id, h.scale)
	}
	c.JSON(http.StatusOK, gin.H{"data": bodies, "count": len(bodies)})
}

func (h *handlers) getBody(c *gin.Context) {
	id, ok := bodyParam(c, "id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newBodyResponse(id, h.scale))
}

func (h *handlers) bodyState(c *gin.Context) {
	id, ok := bodyParam(c, "id")
	if !ok {
		return
	}
	jd, ok := h.instant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newStateResponse(id, jd, h.provider.State(id, jd), h.scale))
}

func (h *handlers) bodyOrbit(c *gin.Context) {
	id, ok := bodyParam(c, "id")
	if !ok {
		return
	}
	q, err := propagation.ParseQuality(c.Query("quality"))
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	ratio := 1.0
	if v := c.Query("pixel_ratio"); v != "" {
		ratio, err = strconv.ParseFloat(v, 64)
		if err != nil || !(ratio > 0) || ratio > 8 {
			abortError(c, http.StatusBadRequest, errors.New("invalid pixel_ratio parameter, must be in (0, 8]"))
			return
		}
	}

	path := propagation.OrbitPathFor(id, q, ratio)
	if path == nil {
		path = []units.VecAU{}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"quality": q.String(),
		"points":  len(path),
		"path_au": path,
		"render":  transform.PathToRenderFrame(path, h.scale),
		"color":   catalog.OrbitColor(id, 0.5).Hex(),
	})
}

func (h *handlers) bodyRelative(c *gin.Context) {
	observer, ok := bodyParam(c, "id")
	if !ok {
		return
	}
	target, ok := bodyParam(c, "target")
	if !ok {
		return
	}
	jd, ok := h.instant(c)
	if !ok {
		return
	}

	rel := transform.Relative(
		h.provider.State(observer, jd).Position,
		h.provider.State(target, jd).Position,
	)
	c.JSON(http.StatusOK, relativeResponse{
		Observer:       observer,
		Target:         target,
		JD:             jd,
		RangeKm:        float64(rel.Range),
		RangeAU:        float64(rel.Range.AU()),
		LightTimeS:     rel.LightTime.Seconds(),
		EclipticLonDeg: rel.EclipticLonDeg,
		EclipticLatDeg: rel.EclipticLatDeg,
	})
}

func (h *handlers) ephemeris(c *gin.Context) {
	jd, ok := h.instant(c)
	if !ok {
		return
	}
	ids := catalog.All()
	states := make([]stateResponse, len(ids))
	for i, id := range ids {
		states[i] = newStateResponse(id, jd, h.provider.State(id, jd), h.scale)
	}
	c.JSON(http.StatusOK, gin.H{
		"jd":    jd,
		"date":  simtime.FormatDate(jd),
		"data":  states,
		"count": len(states),
	})
}

func (h *handlers) convertTime(c *gin.Context) {
	if c.Query("jd") == "" && c.Query("date") == "" && c.Query("year") == "" {
		abortError(c, http.StatusBadRequest, errors.New("jd, date or year parameter is required"))
		return
	}
	jd, ok := h.instant(c)
	if !ok {
		return
	}
	y, m, d := simtime.Calendar(jd)
	c.JSON(http.StatusOK, timeResponse{
		JD:       jd,
		Date:     simtime.FormatDate(jd),
		UnixMs:   simtime.JulianDayToDate(jd).UnixMilli(),
		Calendar: calendarDate{Year: y, Month: m, Day: d},
	})
}
