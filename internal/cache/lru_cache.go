package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/moneytides/backend-go/internal/config"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

// PredictionCache stores fetched three-day prediction windows by station and
// window start date.
type PredictionCache interface {
	GetPredictions(ctx context.Context, stationID string, windowStart time.Time) (*models.PredictionRecord, error)
	SavePredictions(ctx context.Context, record models.PredictionRecord) error
}

type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// LRUCacheEntry wraps the cached data with metadata
type LRUCacheEntry struct {
	Data      *models.PredictionRecord
	ExpiresAt time.Time
}

// CacheStats counts hits and misses per layer.
type CacheStats struct {
	LRUHits      uint64 `json:"lruHits"`
	LRUMisses    uint64 `json:"lruMisses"`
	DynamoHits   uint64 `json:"dynamoHits"`
	DynamoMisses uint64 `json:"dynamoMisses"`
}

// LRUPredictionCache keeps recent prediction windows in memory in front of an
// optional persistent layer.
type LRUPredictionCache struct {
	lru     *lru.Cache[string, *LRUCacheEntry]
	backing PredictionCache
	ttl     time.Duration
	clock   clock

	mu    sync.Mutex
	stats CacheStats
}

// NewLRUPredictionCache creates the in-memory layer. backing may be nil when
// the persistent layer is disabled.
func NewLRUPredictionCache(cfg *config.CacheConfig, backing PredictionCache) (*LRUPredictionCache, error) {
	lruCache, err := lru.New[string, *LRUCacheEntry](cfg.PredictionLRUSize)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &LRUPredictionCache{
		lru:     lruCache,
		backing: backing,
		ttl:     cfg.GetPredictionLRUTTL(),
		clock:   systemClock{},
	}, nil
}

// NewPredictionCache wires the layers enabled in cfg. It returns nil when both
// are disabled.
func NewPredictionCache(cfg *config.CacheConfig, dynamoClient DynamoDBClient) (PredictionCache, error) {
	var backing PredictionCache
	if cfg.EnableDynamoCache && dynamoClient != nil {
		backing = NewDynamoPredictionCache(dynamoClient, cfg)
	}

	if !cfg.EnableLRUCache {
		return backing, nil
	}

	lruCache, err := NewLRUPredictionCache(cfg, backing)
	if err != nil {
		return nil, err
	}
	return lruCache, nil
}

// getCacheKey generates a unique cache key for a station and date
func getCacheKey(stationID string, date time.Time) string {
	return fmt.Sprintf("%s:%s", stationID, date.Format(dateLayout))
}

// GetPredictions tries the LRU first, then the persistent layer, promoting
// persistent hits into memory.
func (c *LRUPredictionCache) GetPredictions(ctx context.Context, stationID string, windowStart time.Time) (*models.PredictionRecord, error) {
	key := getCacheKey(stationID, windowStart)

	if entry, ok := c.lru.Get(key); ok {
		if c.clock.Now().Before(entry.ExpiresAt) {
			c.count(func(s *CacheStats) { s.LRUHits++ })
			return entry.Data, nil
		}
		c.lru.Remove(key)
	}
	c.count(func(s *CacheStats) { s.LRUMisses++ })

	if c.backing == nil {
		return nil, nil
	}

	record, err := c.backing.GetPredictions(ctx, stationID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("getting predictions from DynamoDB: %w", err)
	}

	if record == nil {
		c.count(func(s *CacheStats) { s.DynamoMisses++ })
		return nil, nil
	}

	c.count(func(s *CacheStats) { s.DynamoHits++ })
	c.add(key, record)
	return record, nil
}

// SavePredictions saves to memory and then to the persistent layer.
func (c *LRUPredictionCache) SavePredictions(ctx context.Context, record models.PredictionRecord) error {
	date, err := time.Parse(dateLayout, record.Date)
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}

	c.add(getCacheKey(record.StationID, date), &record)

	if c.backing == nil {
		return nil
	}
	if err := c.backing.SavePredictions(ctx, record); err != nil {
		return fmt.Errorf("saving predictions to DynamoDB: %w", err)
	}
	return nil
}

func (c *LRUPredictionCache) add(key string, record *models.PredictionRecord) {
	c.lru.Add(key, &LRUCacheEntry{
		Data:      record,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
}

func (c *LRUPredictionCache) count(update func(*CacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}

// Stats returns a snapshot of the hit and miss counters.
func (c *LRUPredictionCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// LogStats writes the counters at debug level.
func (c *LRUPredictionCache) LogStats() {
	s := c.Stats()
	log.Debug().
		Uint64("lru_hits", s.LRUHits).
		Uint64("lru_misses", s.LRUMisses).
		Uint64("dynamo_hits", s.DynamoHits).
		Uint64("dynamo_misses", s.DynamoMisses).
		Int("entries", c.lru.Len()).
		Msg("Prediction cache stats")
}

// Clear removes all entries from the LRU cache
func (c *LRUPredictionCache) Clear() {
	c.lru.Purge()
}
