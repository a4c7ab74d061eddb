package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStationFinder implements models.StationFinder interface for testing
type mockStationFinder struct {
	findStationFn         func(ctx context.Context, stationID string) (*models.Station, error)
	findNearestStationsFn func(ctx context.Context, lat, lon float64, limit int) ([]models.Station, error)
}

func (m *mockStationFinder) FindStation(ctx context.Context, stationID string) (*models.Station, error) {
	if m.findStationFn != nil {
		return m.findStationFn(ctx, stationID)
	}
	return nil, models.ErrStationNotFound
}

func (m *mockStationFinder) FindNearestStations(ctx context.Context, lat, lon float64, limit int) ([]models.Station, error) {
	if m.findNearestStationsFn != nil {
		return m.findNearestStationsFn(ctx, lat, lon, limit)
	}
	return nil, nil
}

func createTestStation(id string) models.Station {
	state := "OR"
	region := "Yaquina Bay"
	stationType := "R"
	return models.Station{
		ID:             id,
		Name:           "Test Station " + id,
		State:          &state,
		Region:         &region,
		Latitude:       44.6254,
		Longitude:      -124.0449,
		Source:         models.SourceNOAA,
		Capabilities:   []string{"TIDE_PREDICTIONS"},
		TimeZoneOffset: -8 * 3600,
		StationType:    &stationType,
	}
}

func TestStationsHandler_HandleRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		params    map[string]string
		finder    *mockStationFinder
		wantLimit int
		wantCount int
	}{
		{
			name:   "station lookup by ID",
			params: map[string]string{"stationId": "9435380"},
			finder: &mockStationFinder{
				findStationFn: func(ctx context.Context, stationID string) (*models.Station, error) {
					s := createTestStation(stationID)
					return &s, nil
				},
			},
			wantCount: 1,
		},
		{
			name:      "nearest stations with limit",
			params:    map[string]string{"lat": "44.6", "lon": "-124.0", "limit": "2"},
			wantLimit: 2,
			wantCount: 2,
		},
		{
			name:      "nearest stations default limit",
			params:    map[string]string{"lat": "44.6", "lon": "-124.0"},
			wantLimit: 5,
			wantCount: 5,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			finder := tt.finder
			if finder == nil {
				finder = &mockStationFinder{
					findNearestStationsFn: func(ctx context.Context, lat, lon float64, limit int) ([]models.Station, error) {
						assert.Equal(t, tt.wantLimit, limit)
						stations := make([]models.Station, limit)
						for i := range stations {
							stations[i] = createTestStation(fmt.Sprintf("943538%d", i))
						}
						return stations, nil
					},
				}
			}

			response, err := NewStationsHandler(finder).HandleRequest(context.Background(), events.APIGatewayProxyRequest{QueryStringParameters: tt.params})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, response.StatusCode)

			body := decodeBody(t, response)
			assert.Equal(t, "stations", body["responseType"])
			assert.Len(t, body["stations"], tt.wantCount)
		})
	}
}

func TestStationsHandler_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		params     map[string]string
		finder     *mockStationFinder
		wantStatus int
		wantError  string
	}{
		{
			name:       "no parameters",
			params:     map[string]string{},
			finder:     &mockStationFinder{},
			wantStatus: http.StatusBadRequest,
			wantError:  "stationId or lat and lon are required",
		},
		{
			name:       "invalid latitude",
			params:     map[string]string{"lat": "91", "lon": "0"},
			finder:     &mockStationFinder{},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid coordinates",
		},
		{
			name:       "missing longitude",
			params:     map[string]string{"lat": "44.6"},
			finder:     &mockStationFinder{},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid coordinates",
		},
		{
			name:       "non-numeric coordinates",
			params:     map[string]string{"lat": "invalid", "lon": "-124.0"},
			finder:     &mockStationFinder{},
			wantStatus: http.StatusBadRequest,
			wantError:  `Invalid lat: "invalid"`,
		},
		{
			name:       "station not found",
			params:     map[string]string{"stationId": "0000000"},
			finder:     &mockStationFinder{},
			wantStatus: http.StatusNotFound,
			wantError:  "Station not found",
		},
		{
			name:   "station list unavailable",
			params: map[string]string{"lat": "44.6", "lon": "-124.0"},
			finder: &mockStationFinder{
				findNearestStationsFn: func(ctx context.Context, lat, lon float64, limit int) ([]models.Station, error) {
					return nil, assert.AnError
				},
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			response, err := NewStationsHandler(tt.finder).HandleRequest(context.Background(), events.APIGatewayProxyRequest{QueryStringParameters: tt.params})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, response.StatusCode)

			body := decodeBody(t, response)
			assert.Equal(t, "error", body["responseType"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}
