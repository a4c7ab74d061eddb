package handler

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/moneytides/backend-go/internal/api"
	"github.com/moneytides/backend-go/internal/tide"
	"github.com/rs/zerolog/log"
)

// TimelineHandler serves GET /timeline?stationId=&date=[&lat=&lon=].
type TimelineHandler struct {
	service  tide.TimelineService
	location *time.Location
	now      func() time.Time
}

func NewTimelineHandler(service tide.TimelineService, loc *time.Location) *TimelineHandler {
	return &TimelineHandler{
		service:  service,
		location: loc,
		now:      time.Now,
	}
}

func (h *TimelineHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	query, err := api.ParseStationQuery(request.QueryStringParameters, h.now(), h.location)
	if err != nil {
		return api.ErrorFor(err)
	}

	timeline, err := h.service.GetStationTimeline(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("station_id", query.StationID).Msg("Error building timeline")
		return api.ErrorFor(err)
	}

	return api.Success(api.NewTimelineResponse(timeline))
}
