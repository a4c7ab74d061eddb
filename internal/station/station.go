package station

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/moneytides/backend-go/internal/cache"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

// DefaultLimit is the number of nearest stations returned when the caller
// does not ask for a specific count.
const DefaultLimit = 5

// NOAAStationFinder resolves station ids and positions from the NOAA station
// list, caching it in memory and optionally in a shared store.
type NOAAStationFinder struct {
	httpClient client.Interface
	memory     *cache.StationCache
	store      cache.StationListCacheProvider

	// serializes list refreshes so concurrent misses fetch once
	refreshMu sync.Mutex
}

var _ models.StationFinder = (*NOAAStationFinder)(nil)

type Option func(*NOAAStationFinder)

// WithStationCache replaces the in-memory station list cache.
func WithStationCache(c *cache.StationCache) Option {
	return func(f *NOAAStationFinder) {
		if c != nil {
			f.memory = c
		}
	}
}

// WithListStore adds a shared store (S3) consulted after the memory cache.
func WithListStore(store cache.StationListCacheProvider) Option {
	return func(f *NOAAStationFinder) {
		f.store = store
	}
}

func NewNOAAStationFinder(httpClient client.Interface, opts ...Option) *NOAAStationFinder {
	f := &NOAAStationFinder{
		httpClient: httpClient,
		memory:     cache.NewStationCache(0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindStation returns the station with the given id. An unknown id wraps
// models.ErrStationNotFound.
func (f *NOAAStationFinder) FindStation(ctx context.Context, stationID string) (*models.Station, error) {
	stations, err := f.getStationList(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting station list: %w", err)
	}

	for _, station := range stations {
		if station.ID == stationID {
			log.Trace().Str("station_id", stationID).Msg("FindStation: Found station")
			station := station
			return &station, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", models.ErrStationNotFound, stationID)
}

// FindNearestStations returns up to limit stations ordered by great-circle
// distance in kilometres from lat, lon.
func (f *NOAAStationFinder) FindNearestStations(ctx context.Context, lat, lon float64, limit int) ([]models.Station, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	stations, err := f.getStationList(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting station list: %w", err)
	}

	// Calculate distances in parallel using worker pool
	const workerCount = 4
	work := make(chan models.Station, len(stations))
	results := make(chan models.Station, len(stations))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for station := range work {
				station.Distance = calculateDistance(lat, lon, station.Latitude, station.Longitude)
				results <- station
			}
		}()
	}

	for _, station := range stations {
		work <- station
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	stationsWithDistance := make([]models.Station, 0, len(stations))
	for station := range results {
		stationsWithDistance = append(stationsWithDistance, station)
	}

	sort.Slice(stationsWithDistance, func(i, j int) bool {
		if stationsWithDistance[i].Distance == stationsWithDistance[j].Distance {
			return stationsWithDistance[i].ID < stationsWithDistance[j].ID
		}
		return stationsWithDistance[i].Distance < stationsWithDistance[j].Distance
	})

	if len(stationsWithDistance) > limit {
		stationsWithDistance = stationsWithDistance[:limit]
	}

	return stationsWithDistance, nil
}

func (f *NOAAStationFinder) getStationList(ctx context.Context) ([]models.Station, error) {
	if stations := f.memory.GetStations(); stations != nil {
		log.Debug().Msg("Cache HIT for station list")
		return stations, nil
	}

	f.refreshMu.Lock()
	defer f.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if stations := f.memory.GetStations(); stations != nil {
		return stations, nil
	}

	if f.store != nil {
		stations, err := f.store.GetStations(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Error reading station list store")
		} else if len(stations) > 0 {
			log.Debug().Int("station_count", len(stations)).Msg("Store HIT for station list")
			f.memory.SetStations(stations)
			return stations, nil
		}
	}

	log.Debug().Msg("Cache MISS for station list, calling noaa API")
	stations, err := f.fetchStations(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("station_count", len(stations)).Msgf("Caching list of %d stations", len(stations))
	f.memory.SetStations(stations)

	if f.store != nil {
		if err := f.store.SaveStations(ctx, stations); err != nil {
			log.Warn().Err(err).Msg("Error saving station list to store")
		}
	}

	return stations, nil
}

func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371.0 // km

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
