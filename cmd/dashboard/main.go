package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/nhs-trust-dashboard/internal/adapter/http"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/adapter/govuk"
	kafkaadapter "github.com/couchcryptid/nhs-trust-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/config"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/observability"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional sink for prepared observations (feature-flagged via KAFKA_ENABLED).
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	downloader := govuk.NewClient(cfg.FeedURL, cfg.FeedCachePath, cfg.FetchTimeout, logger)
	p := pipeline.New(downloader, publisher, logger, metrics)

	// The table is built once and handed to the API; a failed fetch ends the process.
	table, err := p.Prepare(ctx)
	if writer != nil {
		if cerr := writer.Close(); cerr != nil {
			logger.Error("kafka writer close error", "error", cerr)
		}
	}
	if err != nil {
		logger.Error("failed to prepare feed", "error", err)
		os.Exit(1)
	}

	charts := httpadapter.NewCachedCharts(table, cfg.SeriesCacheSize, metrics.SeriesCache)
	api := httpadapter.NewAPI(table, charts, cfg.FeedURL, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
