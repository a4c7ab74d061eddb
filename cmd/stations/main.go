package main

import (
	"context"
	"sync"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/moneytides/backend-go/internal/app"
	"github.com/moneytides/backend-go/internal/config"
	"github.com/moneytides/backend-go/internal/handler"
	"github.com/rs/zerolog/log"
)

var (
	stationsHandler *handler.StationsHandler
	setupOnce       sync.Once
)

func setup() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()
		log.Info().Str("env", cfg.Environment).Msg("Environment")
		log.Debug().Msg("Debug logs enabled")

		finder, err := app.NewStationFinder(context.Background(), cfg, config.GetCacheConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize station finder")
		}
		stationsHandler = handler.NewStationsHandler(finder)
	})
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Info().Msg("Handling stations request")
	return stationsHandler.HandleRequest(ctx, request)
}

func main() {
	setup()
	lambda.Start(handleRequest)
}
