package tide

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/moneytides/backend-go/internal/celestial"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/internal/retry"
	"github.com/moneytides/backend-go/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, stationID string, target time.Time, call int) ([]models.TideEvent, error)
}

func (m *mockFetcher) FetchPredictions(ctx context.Context, stationID string, target time.Time) ([]models.TideEvent, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.fetchFn(ctx, stationID, target, call)
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockStationFinder struct {
	findStationFn func(ctx context.Context, stationID string) (*models.Station, error)
}

func (m *mockStationFinder) FindStation(ctx context.Context, stationID string) (*models.Station, error) {
	return m.findStationFn(ctx, stationID)
}

func (m *mockStationFinder) FindNearestStations(context.Context, float64, float64, int) ([]models.Station, error) {
	return nil, nil
}

type mockCache struct {
	getPredictionsFn  func(ctx context.Context, stationID string, windowStart time.Time) (*models.PredictionRecord, error)
	savePredictionsFn func(ctx context.Context, record models.PredictionRecord) error
}

func (m *mockCache) GetPredictions(ctx context.Context, stationID string, windowStart time.Time) (*models.PredictionRecord, error) {
	if m.getPredictionsFn != nil {
		return m.getPredictionsFn(ctx, stationID, windowStart)
	}
	return nil, nil
}

func (m *mockCache) SavePredictions(ctx context.Context, record models.PredictionRecord) error {
	if m.savePredictionsFn != nil {
		return m.savePredictionsFn(ctx, record)
	}
	return nil
}

var fastRetry = retry.Policy{MaxAttempts: 10, BaseDelay: time.Millisecond}

func fixtureFetcher() *mockFetcher {
	return &mockFetcher{
		fetchFn: func(context.Context, string, time.Time, int) ([]models.TideEvent, error) {
			return fixturePredictions(), nil
		},
	}
}

func newTestService(t *testing.T, fetcher Fetcher, finder models.StationFinder, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithEphemeris(scenarioEphemeris), WithRetryPolicy(fastRetry), WithLocation(pacific)}, opts...)
	svc, err := NewService(fetcher, finder, opts...)
	require.NoError(t, err)
	return svc
}

func TestGetStationTimeline(t *testing.T) {
	t.Parallel()

	fetcher := fixtureFetcher()
	svc := newTestService(t, fetcher, nil)

	timeline, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.callCount())
	assert.Len(t, timeline.Events, 35)
	assert.Equal(t, models.NotMoney, timeline.Classification)
	assert.Equal(t, buildFixture(t, fixturePredictions()), timeline)
}

func TestGetStationTimelineIdempotent(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, fixtureFetcher(), nil)

	first, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
	require.NoError(t, err)
	second, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Timelines are independent values.
	first.Events[0].Height = 42
	assert.NotEqual(t, first.Events[0].Height, second.Events[0].Height)
}

func TestGetStationTimelineInvalidQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   models.StationQuery
		wantMsg string
	}{
		{
			name:    "missing station",
			query:   models.StationQuery{Date: at(21, 0, 0), Latitude: 44.6, Longitude: -124},
			wantMsg: "station ID is required",
		},
		{
			name:    "missing date",
			query:   models.StationQuery{StationID: "9435380", Latitude: 44.6, Longitude: -124},
			wantMsg: "date is required",
		},
		{
			name:    "bad latitude",
			query:   models.StationQuery{StationID: "9435380", Date: at(21, 0, 0), Latitude: 91, Longitude: -124},
			wantMsg: "invalid latitude",
		},
		{
			name:    "no coordinates and no station finder",
			query:   models.StationQuery{StationID: "9435380", Date: at(21, 0, 0)},
			wantMsg: "latitude and longitude are required",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fetcher := fixtureFetcher()
			svc := newTestService(t, fetcher, nil)

			timeline, err := svc.GetStationTimeline(context.Background(), tt.query)
			assert.Nil(t, timeline)

			var invalid *InvalidQueryError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Zero(t, fetcher.callCount())
		})
	}
}

func TestGetStationTimelineResolvesCoordinates(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{
		findStationFn: func(_ context.Context, stationID string) (*models.Station, error) {
			if stationID == "9435380" {
				return &models.Station{ID: stationID, Latitude: 44.6254, Longitude: -124.0449}, nil
			}
			return nil, models.ErrStationNotFound
		},
	}
	svc := newTestService(t, fixtureFetcher(), finder)

	query := yaquinaQuery()
	query.Latitude, query.Longitude = 0, 0

	timeline, err := svc.GetStationTimeline(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 44.6254, timeline.Latitude)
	assert.Equal(t, -124.0449, timeline.Longitude)

	query.StationID = "0000000"
	_, err = svc.GetStationTimeline(context.Background(), query)
	assert.ErrorIs(t, err, models.ErrStationNotFound)
}

func TestGetStationTimelineRetries(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{
		fetchFn: func(_ context.Context, stationID string, _ time.Time, call int) ([]models.TideEvent, error) {
			if call < 4 {
				return nil, NewFetchError(stationID, "fetching predictions", errors.New("connection reset"))
			}
			return fixturePredictions(), nil
		},
	}
	svc := newTestService(t, fetcher, nil)

	timeline, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
	require.NoError(t, err)
	assert.Equal(t, 4, fetcher.callCount())
	assert.Len(t, timeline.Predictions(), 12)
}

func TestGetStationTimelineUnavailable(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{
		fetchFn: func(_ context.Context, stationID string, _ time.Time, _ int) ([]models.TideEvent, error) {
			return nil, &FetchError{StationID: stationID, StatusCode: http.StatusServiceUnavailable, Message: "unexpected response"}
		},
	}
	svc := newTestService(t, fetcher, nil)

	timeline, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
	assert.Nil(t, timeline)
	assert.Equal(t, 10, fetcher.callCount())

	var unavailable *StationUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "9435380", unavailable.StationID)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 10, exhausted.Attempts)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
}

func TestGetStationTimelineCancelled(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{
		fetchFn: func(context.Context, string, time.Time, int) ([]models.TideEvent, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := newTestService(t, fetcher, nil, WithRetryPolicy(retry.Policy{MaxAttempts: 10, BaseDelay: time.Hour}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := svc.GetStationTimeline(ctx, yaquinaQuery())
	assert.ErrorIs(t, err, context.Canceled)

	var unavailable *StationUnavailableError
	assert.False(t, errors.As(err, &unavailable))
	assert.Equal(t, 1, fetcher.callCount())
}

func TestGetStationTimelineCache(t *testing.T) {
	t.Parallel()

	t.Run("hit skips the fetcher", func(t *testing.T) {
		t.Parallel()

		record := models.NewPredictionRecord("9435380", at(20, 0, 0), fixturePredictions())
		cache := &mockCache{
			getPredictionsFn: func(_ context.Context, stationID string, windowStart time.Time) (*models.PredictionRecord, error) {
				assert.Equal(t, "9435380", stationID)
				assert.True(t, windowStart.Equal(at(20, 0, 0)))
				return &record, nil
			},
			savePredictionsFn: func(context.Context, models.PredictionRecord) error {
				t.Error("cache hit should not be written back")
				return nil
			},
		}
		fetcher := fixtureFetcher()
		svc := newTestService(t, fetcher, nil, WithCache(cache))

		timeline, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
		require.NoError(t, err)
		assert.Zero(t, fetcher.callCount())
		assert.Equal(t, buildFixture(t, fixturePredictions()), timeline)
	})

	t.Run("miss fetches and saves", func(t *testing.T) {
		t.Parallel()

		var saved []models.PredictionRecord
		cache := &mockCache{
			savePredictionsFn: func(_ context.Context, record models.PredictionRecord) error {
				saved = append(saved, record)
				return nil
			},
		}
		fetcher := fixtureFetcher()
		svc := newTestService(t, fetcher, nil, WithCache(cache))

		_, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.callCount())
		require.Len(t, saved, 1)
		assert.Equal(t, "2024-06-20", saved[0].Date)
		assert.Len(t, saved[0].Predictions, 12)
	})

	t.Run("cache errors fall back to NOAA", func(t *testing.T) {
		t.Parallel()

		cache := &mockCache{
			getPredictionsFn: func(context.Context, string, time.Time) (*models.PredictionRecord, error) {
				return nil, errors.New("table not found")
			},
			savePredictionsFn: func(context.Context, models.PredictionRecord) error {
				return errors.New("throttled")
			},
		}
		fetcher := fixtureFetcher()
		svc := newTestService(t, fetcher, nil, WithCache(cache))

		timeline, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.callCount())
		assert.Len(t, timeline.Predictions(), 12)
	})
}

func TestCurrentHeight(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, fixtureFetcher(), nil)

	height, err := svc.CurrentHeight(context.Background(), yaquinaQuery(), at(21, 14, 0))
	require.NoError(t, err)
	assert.Equal(t, 2.86, height)

	height, err = svc.CurrentHeight(context.Background(), yaquinaQuery(), at(23, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, models.InvalidHeight, height)

	height, err = svc.CurrentHeight(context.Background(), models.StationQuery{}, at(21, 14, 0))
	assert.Error(t, err)
	assert.Equal(t, models.InvalidHeight, height)
}

func TestSkyAt(t *testing.T) {
	t.Parallel()

	finder := &mockStationFinder{
		findStationFn: func(_ context.Context, stationID string) (*models.Station, error) {
			if stationID == "9435380" {
				return &models.Station{ID: stationID, Latitude: 44.6254, Longitude: -124.0449}, nil
			}
			return nil, models.ErrStationNotFound
		},
	}
	fetcher := fixtureFetcher()
	svc := newTestService(t, fetcher, finder, WithEphemeris(celestial.Astronomy{}))

	query := yaquinaQuery()
	query.Latitude, query.Longitude = 0, 0

	when := time.Date(2024, 6, 21, 21, 0, 0, 0, time.UTC)
	sky, err := svc.SkyAt(context.Background(), query, when)
	require.NoError(t, err)
	assert.True(t, sky.Time.Equal(when))
	assert.Equal(t, pacific, sky.Time.Location())
	assert.True(t, sky.Sun.AboveHorizon())
	assert.False(t, sky.Moon.AboveHorizon())
	assert.Equal(t, "Full Moon", sky.MoonPhase)
	assert.Zero(t, fetcher.callCount())

	query.StationID = "0000000"
	_, err = svc.SkyAt(context.Background(), query, when)
	assert.ErrorIs(t, err, models.ErrStationNotFound)

	_, err = svc.SkyAt(context.Background(), models.StationQuery{}, when)
	var invalid *InvalidQueryError
	assert.ErrorAs(t, err, &invalid)
}

func TestServiceAgainstNOAAFixture(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[
			{"t":"2024-06-20 02:10","v":"-0.5","type":"L"},
			{"t":"2024-06-20 08:40","v":"6.1","type":"H"},
			{"t":"2024-06-20 14:20","v":"1.9","type":"L"},
			{"t":"2024-06-20 20:30","v":"7.9","type":"H"},
			{"t":"2024-06-21 03:05","v":"-0.9","type":"L"},
			{"t":"2024-06-21 12:05","v":"7.2","type":"H"},
			{"t":"2024-06-21 17:40","v":"2.1","type":"L"},
			{"t":"2024-06-21 22:15","v":"6.0","type":"H"},
			{"t":"2024-06-22 03:55","v":"-1.0","type":"L"},
			{"t":"2024-06-22 10:20","v":"5.9","type":"H"},
			{"t":"2024-06-22 15:50","v":"2.4","type":"L"},
			{"t":"2024-06-22 22:00","v":"7.9","type":"H"}
		]}`))
	}))
	defer server.Close()

	fetcher := NewNOAAFetcher(client.New(client.Options{BaseURL: server.URL}), pacific)
	svc, err := NewService(fetcher, nil, WithRetryPolicy(fastRetry))
	require.NoError(t, err)

	timeline, err := svc.GetStationTimeline(context.Background(), yaquinaQuery())
	require.NoError(t, err)

	assert.Equal(t, models.Money, timeline.Classification)
	require.Len(t, timeline.ClassifiedEvents, 1)
	earned := timeline.Events[timeline.ClassifiedEvents[0]]
	assert.True(t, earned.Time.Equal(at(21, 12, 5)))

	// Real sun events: 12 solar, plus whatever lunar events the window holds.
	assert.GreaterOrEqual(t, len(timeline.Events), 12+12)
	for _, e := range timeline.TargetDayEvents() {
		if e.Kind == models.KindSunrise {
			assert.Equal(t, 5, e.Time.Hour())
		}
	}
}
