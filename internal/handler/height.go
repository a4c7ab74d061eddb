package handler

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/moneytides/backend-go/internal/api"
	"github.com/moneytides/backend-go/internal/tide"
	"github.com/rs/zerolog/log"
)

// HeightHandler serves GET /height?stationId=&at=[&date=&lat=&lon=]. Without
// a date the timeline is built for the local day containing at.
type HeightHandler struct {
	service  tide.TimelineService
	location *time.Location
	now      func() time.Time
}

func NewHeightHandler(service tide.TimelineService, loc *time.Location) *HeightHandler {
	return &HeightHandler{
		service:  service,
		location: loc,
		now:      time.Now,
	}
}

func (h *HeightHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	at, err := api.ParseInstant(params["at"], h.now())
	if err != nil {
		return api.ErrorFor(err)
	}

	query, err := api.ParseStationQuery(params, at, h.location)
	if err != nil {
		return api.ErrorFor(err)
	}

	timeline, err := h.service.GetStationTimeline(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("station_id", query.StationID).Msg("Error building timeline")
		return api.ErrorFor(err)
	}

	height := h.service.HeightAt(timeline, at)
	return api.Success(api.NewHeightResponse(query.StationID, at.In(h.location), height))
}
