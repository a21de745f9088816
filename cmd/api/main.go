package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	"watchpost/config"
	"watchpost/internals/app"
	"watchpost/internals/server"
	"watchpost/pkg/db"
	"watchpost/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	// Done closes on SIGINT or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	dbPool, err := db.ConnectToDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")

	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	// Background pipeline: audit flusher, notification workers, result
	// workers, maintenance cron, then the broker consumer feeding them.
	container.Recorder.Run()
	container.Dispatcher.Run()
	container.Processor.Run()
	if err := container.Activator.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start maintenance activator")
	}
	app.StartConsumer(ctx, container)
	log.Info().Msg("pipeline workers started")

	router := app.RegisterRoutes(container)
	log.Info().Msg("routes registered")

	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, log)
	srv.Start()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// Stop accepting requests first, then drain the pipeline.
	srv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
