package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moneytides/backend-go/internal/api"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/internal/station"
	"github.com/moneytides/backend-go/internal/tide"
	"github.com/rs/zerolog/log"
)

// Handler serves the timeline, height and station routes.
type Handler struct {
	service  tide.TimelineService
	finder   models.StationFinder
	location *time.Location
	now      func() time.Time
}

func NewHandler(service tide.TimelineService, finder models.StationFinder, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		service:  service,
		finder:   finder,
		location: loc,
		now:      time.Now,
	}
}

// queryParams flattens the URL query and the station path parameter into the
// map the api parsers expect.
func queryParams(c *gin.Context) map[string]string {
	params := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if id := c.Param("id"); id != "" {
		params["stationId"] = id
	}
	return params
}

func writeError(c *gin.Context, err error) {
	status, message := api.StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, api.NewErrorResponse(message))
}

// GetTimeline handles GET /v1/stations/:id/timeline.
func (h *Handler) GetTimeline(c *gin.Context) {
	query, err := api.ParseStationQuery(queryParams(c), h.now(), h.location)
	if err != nil {
		writeError(c, err)
		return
	}

	timeline, err := h.service.GetStationTimeline(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewTimelineResponse(timeline))
}

// GetHeight handles GET /v1/stations/:id/height.
func (h *Handler) GetHeight(c *gin.Context) {
	params := queryParams(c)

	at, err := api.ParseInstant(params["at"], h.now())
	if err != nil {
		writeError(c, err)
		return
	}

	query, err := api.ParseStationQuery(params, at, h.location)
	if err != nil {
		writeError(c, err)
		return
	}

	timeline, err := h.service.GetStationTimeline(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}

	height := h.service.HeightAt(timeline, at)
	c.JSON(http.StatusOK, api.NewHeightResponse(query.StationID, at.In(h.location), height))
}

// GetSky handles GET /v1/stations/:id/sky.
func (h *Handler) GetSky(c *gin.Context) {
	params := queryParams(c)

	at, err := api.ParseInstant(params["at"], h.now())
	if err != nil {
		writeError(c, err)
		return
	}

	query, err := api.ParseStationQuery(params, at, h.location)
	if err != nil {
		writeError(c, err)
		return
	}

	sky, err := h.service.SkyAt(c.Request.Context(), query, at)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewSkyResponse(query.StationID, sky))
}

// GetStations handles GET /v1/stations?lat=&lon=&limit=.
func (h *Handler) GetStations(c *gin.Context) {
	params := queryParams(c)

	lat, lon, err := api.ParseCoordinates(params)
	if err != nil {
		writeError(c, err)
		return
	}
	if _, ok := params["lat"]; !ok {
		c.JSON(http.StatusBadRequest, api.NewErrorResponse("lat and lon are required"))
		return
	}

	stations, err := h.finder.FindNearestStations(c.Request.Context(), lat, lon, api.ParseLimit(params["limit"], station.DefaultLimit))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NewStationsResponse(stations))
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   h.now().UTC().Format(time.RFC3339),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Handled request")
	}
}
