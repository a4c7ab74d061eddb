package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/internal/tide"
)

// Options configures the router.
type Options struct {
	// AllowedOrigins lists CORS origins. Empty allows all origins.
	AllowedOrigins []string
	Location       *time.Location
	Now            func() time.Time
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(service tide.TimelineService, finder models.StationFinder, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	h := NewHandler(service, finder, opts.Location)
	if opts.Now != nil {
		h.now = opts.Now
	}

	v1 := router.Group("/v1")
	stations := v1.Group("/stations")
	stations.GET("", h.GetStations)
	stations.GET("/:id/timeline", h.GetTimeline)
	stations.GET("/:id/height", h.GetHeight)
	stations.GET("/:id/sky", h.GetSky)

	router.GET("/health", h.HealthCheck)

	return router
}
