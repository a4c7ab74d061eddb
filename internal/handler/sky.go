package handler

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/moneytides/backend-go/internal/api"
	"github.com/moneytides/backend-go/internal/tide"
	"github.com/rs/zerolog/log"
)

// SkyHandler serves GET /sky?stationId=&at=[&lat=&lon=].
type SkyHandler struct {
	service  tide.TimelineService
	location *time.Location
	now      func() time.Time
}

func NewSkyHandler(service tide.TimelineService, loc *time.Location) *SkyHandler {
	return &SkyHandler{
		service:  service,
		location: loc,
		now:      time.Now,
	}
}

func (h *SkyHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	at, err := api.ParseInstant(params["at"], h.now())
	if err != nil {
		return api.ErrorFor(err)
	}

	query, err := api.ParseStationQuery(params, at, h.location)
	if err != nil {
		return api.ErrorFor(err)
	}

	sky, err := h.service.SkyAt(ctx, query, at)
	if err != nil {
		log.Error().Err(err).Str("station_id", query.StationID).Msg("Error computing sky position")
		return api.ErrorFor(err)
	}

	return api.Success(api.NewSkyResponse(query.StationID, sky))
}
