package cache

import (
	"sync"
	"time"

	"github.com/moneytides/backend-go/internal/models"
)

// StationCache holds the station list in memory.
type StationCache struct {
	stations    []models.Station
	lastUpdated time.Time
	ttl         time.Duration
	clock       clock
	mu          sync.RWMutex
}

func NewStationCache(ttl time.Duration) *StationCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StationCache{
		stations: make([]models.Station, 0),
		ttl:      ttl,
		clock:    systemClock{},
	}
}

// GetStations returns nil until the list is set and after it expires.
func (c *StationCache) GetStations() []models.Station {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isExpired() {
		return nil
	}
	return c.stations
}

func (c *StationCache) SetStations(stations []models.Station) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stations = stations
	c.lastUpdated = c.clock.Now()
}

func (c *StationCache) isExpired() bool {
	return c.lastUpdated.IsZero() || c.clock.Now().Sub(c.lastUpdated) > c.ttl
}
