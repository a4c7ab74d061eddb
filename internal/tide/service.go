package tide

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moneytides/backend-go/internal/celestial"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/internal/retry"
	"github.com/rs/zerolog/log"
)

// DefaultLocation is the civil time zone of every station the app shows.
const DefaultLocation = "America/Los_Angeles"

type Service struct {
	fetcher       Fetcher
	stationFinder models.StationFinder
	cache         CacheProvider
	ephemeris     celestial.Ephemeris
	policy        retry.Policy
	location      *time.Location
}

type Option func(*Service)

// WithCache puts a prediction cache in front of the fetcher.
func WithCache(c CacheProvider) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithEphemeris(eph celestial.Ephemeris) Option {
	return func(s *Service) {
		s.ephemeris = eph
	}
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService builds a Service. stationFinder may be nil, in which case every
// query must carry coordinates.
func NewService(fetcher Fetcher, stationFinder models.StationFinder, opts ...Option) (*Service, error) {
	loc, err := time.LoadLocation(DefaultLocation)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %s: %w", DefaultLocation, err)
	}

	s := &Service{
		fetcher:       fetcher,
		stationFinder: stationFinder,
		ephemeris:     celestial.Astronomy{},
		policy:        retry.DefaultPolicy(),
		location:      loc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ TimelineService = (*Service)(nil)

// GetStationTimeline builds the three-day timeline for query and classifies
// the target day.
func (s *Service) GetStationTimeline(ctx context.Context, query models.StationQuery) (*models.Timeline, error) {
	if err := query.Validate(); err != nil {
		return nil, NewInvalidQueryError(err.Error())
	}

	query, err := s.resolveCoordinates(ctx, query)
	if err != nil {
		return nil, err
	}

	target := localMidnight(query.Date, s.location)

	predictions, err := s.loadPredictions(ctx, query.StationID, target)
	if err != nil {
		return nil, err
	}

	days, err := celestial.ForWindow(s.ephemeris, target, query.Latitude, query.Longitude)
	if err != nil {
		return nil, fmt.Errorf("computing celestial events: %w", err)
	}

	timeline := BuildTimeline(query, predictions, days, s.location)

	log.Debug().
		Str("station_id", query.StationID).
		Str("date", target.Format("2006-01-02")).
		Int("events", len(timeline.Events)).
		Stringer("classification", timeline.Classification).
		Msg("Built station timeline")

	return timeline, nil
}

func (s *Service) HeightAt(timeline *models.Timeline, at time.Time) float64 {
	return HeightAt(timeline, at)
}

// CurrentHeight builds the timeline for query and returns the height at now.
func (s *Service) CurrentHeight(ctx context.Context, query models.StationQuery, now time.Time) (float64, error) {
	timeline, err := s.GetStationTimeline(ctx, query)
	if err != nil {
		return models.InvalidHeight, err
	}
	return HeightAt(timeline, now), nil
}

// SkyAt returns the sun and moon positions over the query's station at an
// instant. Only the station and coordinates of query are used.
func (s *Service) SkyAt(ctx context.Context, query models.StationQuery, at time.Time) (*celestial.SkyPosition, error) {
	if err := query.Validate(); err != nil {
		return nil, NewInvalidQueryError(err.Error())
	}

	query, err := s.resolveCoordinates(ctx, query)
	if err != nil {
		return nil, err
	}

	sky := celestial.Position(s.ephemeris, at.In(s.location), query.Latitude, query.Longitude)
	return &sky, nil
}

func (s *Service) resolveCoordinates(ctx context.Context, query models.StationQuery) (models.StationQuery, error) {
	if query.HasCoordinates() {
		return query, nil
	}
	if s.stationFinder == nil {
		return query, NewInvalidQueryError("latitude and longitude are required")
	}

	station, err := s.stationFinder.FindStation(ctx, query.StationID)
	if err != nil {
		return query, fmt.Errorf("finding station: %w", err)
	}

	query.Latitude = station.Latitude
	query.Longitude = station.Longitude
	return query, nil
}

func (s *Service) loadPredictions(ctx context.Context, stationID string, target time.Time) ([]models.TideEvent, error) {
	windowStart := target.AddDate(0, 0, -1)

	if s.cache != nil {
		record, err := s.cache.GetPredictions(ctx, stationID, windowStart)
		if err != nil {
			log.Warn().Err(err).Str("station_id", stationID).Msg("Error reading prediction cache")
		} else if record != nil && len(record.Predictions) > 0 {
			return record.Events(s.location), nil
		}
	}

	task := retry.Start(ctx, s.policy, func(ctx context.Context, attempt int) ([]models.TideEvent, error) {
		return s.fetcher.FetchPredictions(ctx, stationID, target)
	})
	predictions, err := task.Wait()
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return nil, &StationUnavailableError{StationID: stationID, Err: err}
		}
		return nil, fmt.Errorf("fetching predictions: %w", err)
	}

	if s.cache != nil && len(predictions) > 0 {
		record := models.NewPredictionRecord(stationID, windowStart, predictions)
		if err := s.cache.SavePredictions(ctx, record); err != nil {
			log.Warn().Err(err).Str("station_id", stationID).Msg("Error saving predictions to cache")
		}
	}

	return predictions, nil
}
