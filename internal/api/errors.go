package api

import (
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/internal/tide"
)

// StatusFor maps a service error to the HTTP status and the message shown to
// clients.
func StatusFor(err error) (int, string) {
	var unavailable *tide.StationUnavailableError
	var invalidQuery *tide.InvalidQueryError
	var invalidParam InvalidParameterError
	var invalidCoords InvalidCoordinatesError

	switch {
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable, "Tide predictions are unavailable for this station"
	case errors.As(err, &invalidQuery):
		return http.StatusBadRequest, invalidQuery.Message
	case errors.As(err, &invalidParam), errors.As(err, &invalidCoords):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrStationNotFound):
		return http.StatusNotFound, "Station not found"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// ErrorFor renders err as an API Gateway error response.
func ErrorFor(err error) (events.APIGatewayProxyResponse, error) {
	status, message := StatusFor(err)
	return Error(message, status)
}
