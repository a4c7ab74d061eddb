package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// LRU Cache settings
	PredictionLRUSize       int
	PredictionLRUTTLMinutes int

	// DynamoDB Cache settings
	PredictionDynamoTTLDays int
	DynamoTableName         string
	DynamoEndpoint          string

	// Station list settings
	StationListTTLDays    int
	StationMemoryTTLHours int

	// Batch processing settings
	BatchSize       int
	MaxBatchRetries int

	// General settings
	EnableLRUCache    bool
	EnableDynamoCache bool
}

const (
	// Default values
	defaultPredictionLRUSize    = 1000
	defaultPredictionTTLMinutes = 15
	defaultDynamoTTLDays        = 2
	defaultDynamoTableName      = "tide-predictions-cache"
	defaultStationListTTLDays   = 2
	defaultStationMemoryHours   = 24
	defaultBatchSize            = 25
	defaultMaxBatchRetries      = 3
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	v := newEnv()
	v.SetDefault("CACHE_DYNAMO_TABLE", defaultDynamoTableName)

	config := &CacheConfig{
		PredictionLRUSize:       getEnvInt(v, "CACHE_TIDE_LRU_SIZE", defaultPredictionLRUSize),
		PredictionLRUTTLMinutes: getEnvInt(v, "CACHE_TIDE_LRU_TTL_MINUTES", defaultPredictionTTLMinutes),
		PredictionDynamoTTLDays: getEnvInt(v, "CACHE_DYNAMO_TTL_DAYS", defaultDynamoTTLDays),
		DynamoTableName:         v.GetString("CACHE_DYNAMO_TABLE"),
		DynamoEndpoint:          v.GetString("DYNAMODB_ENDPOINT"),
		StationListTTLDays:      getEnvInt(v, "CACHE_STATION_LIST_TTL_DAYS", defaultStationListTTLDays),
		StationMemoryTTLHours:   getEnvInt(v, "CACHE_STATION_MEMORY_TTL_HOURS", defaultStationMemoryHours),
		BatchSize:               getEnvInt(v, "CACHE_BATCH_SIZE", defaultBatchSize),
		MaxBatchRetries:         getEnvInt(v, "CACHE_MAX_BATCH_RETRIES", defaultMaxBatchRetries),
		EnableLRUCache:          getEnvBool(v, "CACHE_ENABLE_LRU", true),
		EnableDynamoCache:       getEnvBool(v, "CACHE_ENABLE_DYNAMO", true),
	}

	log.Debug().
		Int("PredictionLRUSize", config.PredictionLRUSize).
		Int("PredictionLRUTTLMinutes", config.PredictionLRUTTLMinutes).
		Int("PredictionDynamoTTLDays", config.PredictionDynamoTTLDays).
		Str("DynamoTableName", config.DynamoTableName).
		Str("DynamoEndpoint", config.DynamoEndpoint).
		Int("StationListTTLDays", config.StationListTTLDays).
		Int("StationMemoryTTLHours", config.StationMemoryTTLHours).
		Int("BatchSize", config.BatchSize).
		Int("MaxBatchRetries", config.MaxBatchRetries).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableDynamoCache", config.EnableDynamoCache).
		Msg("Cache configuration loaded")

	return config
}

// Helper methods for the CacheConfig struct
func (c *CacheConfig) GetPredictionLRUTTL() time.Duration {
	return time.Duration(c.PredictionLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetDynamoTTL() time.Duration {
	return time.Duration(c.PredictionDynamoTTLDays) * 24 * time.Hour
}

func (c *CacheConfig) GetStationListTTL() time.Duration {
	return time.Duration(c.StationListTTLDays) * 24 * time.Hour
}

func (c *CacheConfig) GetStationMemoryTTL() time.Duration {
	return time.Duration(c.StationMemoryTTLHours) * time.Hour
}

// Helper functions to get environment variables with defaults
func getEnvInt(v *viper.Viper, key string, defaultVal int) int {
	if val := v.GetString(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(v *viper.Viper, key string, defaultVal bool) bool {
	if val := v.GetString(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
