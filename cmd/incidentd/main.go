package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/incident-analytics-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/incident-analytics-service/internal/adapter/kafka"
	"github.com/couchcryptid/incident-analytics-service/internal/adapter/mapbox"
	"github.com/couchcryptid/incident-analytics-service/internal/analysis"
	"github.com/couchcryptid/incident-analytics-service/internal/config"
	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	"github.com/couchcryptid/incident-analytics-service/internal/observability"
	"github.com/couchcryptid/incident-analytics-service/internal/pipeline"
	"github.com/couchcryptid/incident-analytics-service/internal/scheduler"
	"github.com/couchcryptid/incident-analytics-service/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	window := store.NewWindow(cfg.WindowSize, metrics)
	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(geocoder, logger)

	// The window is loaded after the sink so it only holds published incidents.
	p := pipeline.New(reader, transformer, pipeline.MultiLoader{writer, window}, logger, metrics, cfg.BatchSize)

	svc := analysis.New(window, analysis.Options{
		ClusterK:        cfg.ClusterK,
		ClusterMode:     cfg.ClusterMode,
		MaxIterations:   cfg.ClusterMaxIterations,
		ForecastHorizon: cfg.ForecastHorizon,
		RangeDays:       cfg.ReportRangeDays,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, svc, logger)

	var (
		sched        *scheduler.Scheduler
		reportWriter *kafkaadapter.ReportWriter
	)
	if cfg.ReportSchedule != "" {
		reportWriter = kafkaadapter.NewReportWriter(cfg, logger)
		sched, err = scheduler.New(cfg.ReportSchedule, svc, reportWriter, logger, metrics)
		if err != nil {
			logger.Error("failed to create report scheduler", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ingest pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	if sched != nil {
		sched.Start()
		logger.Info("report schedule active", "schedule", cfg.ReportSchedule, "topic", cfg.KafkaReportTopic)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Error("report scheduler stop error", "error", err)
		}
		if err := reportWriter.Close(); err != nil {
			logger.Error("kafka report writer close error", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
