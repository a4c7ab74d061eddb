// internal/tide/interface.go
package tide

import (
	"context"
	"github.com/moneytides/backend-go/internal/celestial"
	"github.com/moneytides/backend-go/internal/models"
	"time"
)

type TimelineService interface {
	GetStationTimeline(ctx context.Context, query models.StationQuery) (*models.Timeline, error)
	HeightAt(timeline *models.Timeline, at time.Time) float64
	CurrentHeight(ctx context.Context, query models.StationQuery, now time.Time) (float64, error)
	SkyAt(ctx context.Context, query models.StationQuery, at time.Time) (*celestial.SkyPosition, error)
}

// Fetcher retrieves the predicted highs and lows for the three days around
// target.
type Fetcher interface {
	FetchPredictions(ctx context.Context, stationID string, target time.Time) ([]models.TideEvent, error)
}

type CacheProvider interface {
	GetPredictions(ctx context.Context, stationID string, windowStart time.Time) (*models.PredictionRecord, error)
	SavePredictions(ctx context.Context, record models.PredictionRecord) error
}
