package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aguasdev/aguas-api/services/api/aggregate"
	"github.com/aguasdev/aguas-api/services/api/clock"
	"github.com/aguasdev/aguas-api/services/api/config"
	"github.com/aguasdev/aguas-api/services/api/db"
	httpserver "github.com/aguasdev/aguas-api/services/api/http"
	"github.com/aguasdev/aguas-api/services/api/ingest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	clk := clock.System{}
	engine := aggregate.NewEngine(store, clk)
	resolver := aggregate.NewResolver(engine, clk, logger)
	service := aggregate.NewService(store, resolver)
	normalizer := ingest.NewNormalizer(store, clk, logger)

	srv := httpserver.New(cfg, normalizer, service, logger)
	logger.Info("telemetry API listening", "addr", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
