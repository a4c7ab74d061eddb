// Package app wires the service graph shared by the Lambda functions and the
// HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/moneytides/backend-go/internal/cache"
	"github.com/moneytides/backend-go/internal/config"
	"github.com/moneytides/backend-go/internal/station"
	"github.com/moneytides/backend-go/internal/tide"
	"github.com/moneytides/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config          *config.Config
	Location        *time.Location
	Finder          *station.NOAAStationFinder
	Service         *tide.Service
	PredictionCache cache.PredictionCache
}

// New builds the station finder, prediction cache and timeline service from
// configuration. AWS clients are only created for the layers that are enabled.
func New(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	httpClient := newHTTPClient(cfg)

	finder, err := newStationFinder(ctx, cfg, cacheCfg, httpClient)
	if err != nil {
		return nil, err
	}

	var dynamoClient cache.DynamoDBClient
	if cacheCfg.EnableDynamoCache {
		c, err := cache.NewDynamoClient(ctx, cacheCfg.DynamoEndpoint)
		if err != nil {
			return nil, fmt.Errorf("creating DynamoDB client: %w", err)
		}
		dynamoClient = c
	}

	predictionCache, err := cache.NewPredictionCache(cacheCfg, dynamoClient)
	if err != nil {
		return nil, fmt.Errorf("creating prediction cache: %w", err)
	}

	serviceOpts := []tide.Option{
		tide.WithRetryPolicy(cfg.Retry),
		tide.WithLocation(loc),
	}
	if predictionCache != nil {
		serviceOpts = append(serviceOpts, tide.WithCache(predictionCache))
	}

	service, err := tide.NewService(tide.NewNOAAFetcher(httpClient, loc), finder, serviceOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating tide service: %w", err)
	}

	return &App{
		Config:          cfg,
		Location:        loc,
		Finder:          finder,
		Service:         service,
		PredictionCache: predictionCache,
	}, nil
}

// NewStationFinder builds only the station lookup, for processes that never
// fetch predictions.
func NewStationFinder(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig) (*station.NOAAStationFinder, error) {
	return newStationFinder(ctx, cfg, cacheCfg, newHTTPClient(cfg))
}

func newHTTPClient(cfg *config.Config) *client.Client {
	return client.New(client.Options{
		BaseURL: cfg.NOAABaseURL,
		Timeout: cfg.HTTPTimeout,
	})
}

func newStationFinder(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig, httpClient client.Interface) (*station.NOAAStationFinder, error) {
	opts := []station.Option{
		station.WithStationCache(cache.NewStationCache(cacheCfg.GetStationMemoryTTL())),
	}
	if cfg.StationBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		store := cache.NewS3StationCache(s3.NewFromConfig(awsCfg), cfg.StationBucket, cacheCfg.GetStationListTTL())
		opts = append(opts, station.WithListStore(store))
		log.Debug().Str("bucket", cfg.StationBucket).Msg("Station list store enabled")
	}
	return station.NewNOAAStationFinder(httpClient, opts...), nil
}

// LogCacheStats reports prediction cache counters when the memory layer is on.
func (a *App) LogCacheStats() {
	if lruCache, ok := a.PredictionCache.(*cache.LRUPredictionCache); ok {
		lruCache.LogStats()
	}
}
