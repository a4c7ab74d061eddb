package main

import (
	"context"
	"strings"
	"sync"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/moneytides/backend-go/internal/app"
	"github.com/moneytides/backend-go/internal/config"
	"github.com/moneytides/backend-go/internal/handler"
	"github.com/rs/zerolog/log"
)

type requestHandler interface {
	HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

var (
	timelineHandler requestHandler
	heightHandler   requestHandler
	skyHandler      requestHandler
	setupOnce       sync.Once
)

func setup() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()
		log.Info().Str("env", cfg.Environment).Msg("Environment")

		a, err := app.New(context.Background(), cfg, config.GetCacheConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize timeline service")
		}

		timelineHandler = handler.NewTimelineHandler(a.Service, a.Location)
		heightHandler = handler.NewHeightHandler(a.Service, a.Location)
		skyHandler = handler.NewSkyHandler(a.Service, a.Location)
	})
}

// handleRequest serves /timeline, /height and /sky from one function.
func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Info().Str("path", request.Path).Msg("Handling timeline request")

	path := strings.TrimSuffix(request.Path, "/")
	switch {
	case strings.HasSuffix(path, "/height"):
		return heightHandler.HandleRequest(ctx, request)
	case strings.HasSuffix(path, "/sky"):
		return skyHandler.HandleRequest(ctx, request)
	default:
		return timelineHandler.HandleRequest(ctx, request)
	}
}

func main() {
	setup()
	lambda.Start(handleRequest)
}
