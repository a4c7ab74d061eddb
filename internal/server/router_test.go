package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moneytides/backend-go/internal/celestial"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/internal/tide"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockTimelineService struct {
	mock.Mock
}

func (m *mockTimelineService) GetStationTimeline(ctx context.Context, query models.StationQuery) (*models.Timeline, error) {
	args := m.Called(ctx, query)
	timeline, _ := args.Get(0).(*models.Timeline)
	return timeline, args.Error(1)
}

func (m *mockTimelineService) HeightAt(timeline *models.Timeline, at time.Time) float64 {
	return m.Called(timeline, at).Get(0).(float64)
}

func (m *mockTimelineService) CurrentHeight(ctx context.Context, query models.StationQuery, now time.Time) (float64, error) {
	args := m.Called(ctx, query, now)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockTimelineService) SkyAt(ctx context.Context, query models.StationQuery, at time.Time) (*celestial.SkyPosition, error) {
	args := m.Called(ctx, query, at)
	sky, _ := args.Get(0).(*celestial.SkyPosition)
	return sky, args.Error(1)
}

type mockStationFinder struct {
	mock.Mock
}

func (m *mockStationFinder) FindStation(ctx context.Context, stationID string) (*models.Station, error) {
	args := m.Called(ctx, stationID)
	s, _ := args.Get(0).(*models.Station)
	return s, args.Error(1)
}

func (m *mockStationFinder) FindNearestStations(ctx context.Context, lat, lon float64, limit int) ([]models.Station, error) {
	args := m.Called(ctx, lat, lon, limit)
	s, _ := args.Get(0).([]models.Station)
	return s, args.Error(1)
}

var pacific = func() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
	return loc
}()

var fixedNow = time.Date(2024, 6, 21, 19, 0, 0, 0, time.UTC)

func newTestRouter(service tide.TimelineService, finder models.StationFinder, origins ...string) *gin.Engine {
	return SetupRouter(service, finder, Options{
		AllowedOrigins: origins,
		Location:       pacific,
		Now:            func() time.Time { return fixedNow },
	})
}

func get(t *testing.T, router http.Handler, target string, header ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func sampleTimeline() *models.Timeline {
	day := time.Date(2024, 6, 21, 0, 0, 0, 0, pacific)
	return &models.Timeline{
		StationID:        "9435380",
		Date:             day,
		Classification:   models.MostlyMoney,
		ClassifiedEvents: []int{0},
		Events: []models.TideEvent{
			{Kind: models.KindHighTide, Time: day.Add(10*time.Hour + 30*time.Minute), Height: 6.2, IsPrediction: true, IsTargetDay: true, Classification: models.MostlyMoney},
		},
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec, body := get(t, newTestRouter(&mockTimelineService{}, &mockStationFinder{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2024-06-21T19:00:00Z", body["time"])
}

func TestGetTimeline(t *testing.T) {
	t.Parallel()

	service := &mockTimelineService{}
	service.On("GetStationTimeline", mock.Anything, models.StationQuery{
		StationID: "9435380",
		Date:      time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
	}).Return(sampleTimeline(), nil).Once()

	rec, body := get(t, newTestRouter(service, &mockStationFinder{}), "/v1/stations/9435380/timeline?date=2024-06-21")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "timeline", body["responseType"])
	assert.Equal(t, "mostly-money", body["classification"])
	assert.Equal(t, "9435380", body["stationId"])
	service.AssertExpectations(t)
}

func TestGetTimelineErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		serviceErr error
		wantStatus int
	}{
		{name: "bad date", target: "/v1/stations/9435380/timeline?date=tomorrow", wantStatus: http.StatusBadRequest},
		{name: "bad coordinates", target: "/v1/stations/9435380/timeline?lat=95&lon=0", wantStatus: http.StatusBadRequest},
		{
			name:       "unavailable",
			target:     "/v1/stations/9435380/timeline",
			serviceErr: &tide.StationUnavailableError{StationID: "9435380", Err: errors.New("timeout")},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unknown station",
			target:     "/v1/stations/0000000/timeline",
			serviceErr: models.ErrStationNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unexpected",
			target:     "/v1/stations/9435380/timeline",
			serviceErr: errors.New("no solar events"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := &mockTimelineService{}
			if tt.serviceErr != nil {
				service.On("GetStationTimeline", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}

			rec, body := get(t, newTestRouter(service, &mockStationFinder{}), tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "error", body["responseType"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetHeight(t *testing.T) {
	t.Parallel()

	timeline := sampleTimeline()
	at := time.Date(2024, 6, 21, 21, 0, 0, 0, time.UTC)

	service := &mockTimelineService{}
	service.On("GetStationTimeline", mock.Anything, models.StationQuery{
		StationID: "9435380",
		Date:      time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
	}).Return(timeline, nil).Once()
	service.On("HeightAt", timeline, at).Return(2.86).Once()

	rec, body := get(t, newTestRouter(service, &mockStationFinder{}), "/v1/stations/9435380/height?at=2024-06-21T21:00:00Z")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "height", body["responseType"])
	assert.Equal(t, 2.86, body["height"])
	service.AssertExpectations(t)
}

func TestGetSky(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 6, 21, 21, 0, 0, 0, time.UTC)
	sky := &celestial.SkyPosition{
		Time:      at.In(pacific),
		Sun:       celestial.HorizontalPosition{Altitude: 58.1, Azimuth: 220.4},
		MoonPhase: "Full Moon",
	}

	service := &mockTimelineService{}
	service.On("SkyAt", mock.Anything, models.StationQuery{
		StationID: "9435380",
		Date:      time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
	}, at).Return(sky, nil).Once()

	rec, body := get(t, newTestRouter(service, &mockStationFinder{}), "/v1/stations/9435380/sky?at=2024-06-21T21:00:00Z")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sky", body["responseType"])

	got, ok := body["sky"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Full Moon", got["moonPhase"])
	assert.Equal(t, 58.1, got["sun"].(map[string]interface{})["altitude"])
	service.AssertExpectations(t)
}

func TestGetSkyUnknownStation(t *testing.T) {
	t.Parallel()

	service := &mockTimelineService{}
	service.On("SkyAt", mock.Anything, mock.Anything, mock.Anything).Return(nil, models.ErrStationNotFound)

	rec, body := get(t, newTestRouter(service, &mockStationFinder{}), "/v1/stations/0000000/sky")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", body["responseType"])
}

func TestGetStations(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{}
	finder.On("FindNearestStations", mock.Anything, 44.6, -124.0, 3).
		Return([]models.Station{{ID: "9435380", Name: "South Beach"}}, nil).Once()

	rec, body := get(t, newTestRouter(&mockTimelineService{}, finder), "/v1/stations?lat=44.6&lon=-124.0&limit=3")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stations", body["responseType"])
	assert.Len(t, body["stations"], 1)
	finder.AssertExpectations(t)
}

func TestGetStationsRequiresCoordinates(t *testing.T) {
	t.Parallel()

	rec, body := get(t, newTestRouter(&mockTimelineService{}, &mockStationFinder{}), "/v1/stations")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "lat and lon are required", body["error"])
}

func TestCORS(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockTimelineService{}, &mockStationFinder{}, "http://localhost:5173")

	rec, _ := get(t, router, "/health", "Origin", "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	other := httptest.NewRecorder()
	router.ServeHTTP(other, req)
	assert.Equal(t, http.StatusForbidden, other.Code)
}

func TestCORSAllowAll(t *testing.T) {
	t.Parallel()

	rec, _ := get(t, newTestRouter(&mockTimelineService{}, &mockStationFinder{}), "/health", "Origin", "https://anywhere.example")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
