package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/moneytides/backend-go/internal/celestial"
	"github.com/moneytides/backend-go/internal/models"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

func (r APIResponse) GetResponseType() string {
	return r.ResponseType
}

type StationsResponse struct {
	APIResponse
	Stations []models.Station `json:"stations"`
}

// TimelineResponse carries the day verdict next to the full three-day
// timeline.
type TimelineResponse struct {
	APIResponse
	StationID      string                     `json:"stationId"`
	Date           string                     `json:"date"`
	Classification models.MoneyClassification `json:"classification"`
	Timeline       *models.Timeline           `json:"timeline"`
}

type HeightResponse struct {
	APIResponse
	StationID string    `json:"stationId"`
	Time      time.Time `json:"time"`
	Height    *float64  `json:"height"` // null outside the predicted range
}

// SkyResponse carries sun and moon bearings for the map overlay.
type SkyResponse struct {
	APIResponse
	StationID string                 `json:"stationId"`
	Sky       *celestial.SkyPosition `json:"sky"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewStationsResponse(stations []models.Station) *StationsResponse {
	if stations == nil {
		stations = []models.Station{}
	}
	return &StationsResponse{
		APIResponse: APIResponse{ResponseType: "stations"},
		Stations:    stations,
	}
}

func NewTimelineResponse(timeline *models.Timeline) *TimelineResponse {
	return &TimelineResponse{
		APIResponse:    APIResponse{ResponseType: "timeline"},
		StationID:      timeline.StationID,
		Date:           timeline.Date.Format(DateLayout),
		Classification: timeline.Classification,
		Timeline:       timeline,
	}
}

func NewHeightResponse(stationID string, at time.Time, height float64) *HeightResponse {
	resp := &HeightResponse{
		APIResponse: APIResponse{ResponseType: "height"},
		StationID:   stationID,
		Time:        at,
	}
	if height != models.InvalidHeight {
		resp.Height = &height
	}
	return resp
}

func NewSkyResponse(stationID string, sky *celestial.SkyPosition) *SkyResponse {
	return &SkyResponse{
		APIResponse: APIResponse{ResponseType: "sky"},
		StationID:   stationID,
		Sky:         sky,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}, nil
}
