// Package main runs the timeline API as a standalone HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/moneytides/backend-go/internal/app"
	"github.com/moneytides/backend-go/internal/config"
	"github.com/moneytides/backend-go/internal/server"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("money-tides version %s\n", version)
		return
	}

	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	router := server.SetupRouter(a.Service, a.Finder, server.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Location:       a.Location,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("time_zone", cfg.StationTimeZone).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	a.LogCacheStats()
}
