package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/moneytides/backend-go/internal/api"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/internal/station"
	"github.com/rs/zerolog/log"
)

type StationsHandler struct {
	stationFinder models.StationFinder
}

func NewStationsHandler(finder models.StationFinder) *StationsHandler {
	return &StationsHandler{
		stationFinder: finder,
	}
}

func (h *StationsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	// Check if we're looking up by station ID or coordinates
	if stationID, ok := params["stationId"]; ok {
		found, err := h.stationFinder.FindStation(ctx, stationID)
		if err != nil {
			log.Error().Err(err).Str("station_id", stationID).Msg("Error finding station")
			return api.ErrorFor(err)
		}
		return api.Success(api.NewStationsResponse([]models.Station{*found}))
	}

	_, hasLat := params["lat"]
	_, hasLon := params["lon"]
	if !hasLat && !hasLon {
		return api.Error("stationId or lat and lon are required", http.StatusBadRequest)
	}

	lat, lon, err := api.ParseCoordinates(params)
	if err != nil {
		return api.ErrorFor(err)
	}

	limit := api.ParseLimit(params["limit"], station.DefaultLimit)

	stations, err := h.stationFinder.FindNearestStations(ctx, lat, lon, limit)
	if err != nil {
		log.Error().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("Error finding nearest stations")
		return api.ErrorFor(err)
	}

	return api.Success(api.NewStationsResponse(stations))
}
