package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaReportTopic string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Analysis settings.
	WindowSize           int
	ClusterK             int
	ClusterMode          domain.ClusterMode
	ClusterMaxIterations int
	ForecastHorizon      int

	// Scheduled report publishing. An empty schedule disables the job.
	ReportSchedule  string
	ReportRangeDays int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	windowSize, err := parseIntInRange("WINDOW_SIZE", 10000, 1, 1_000_000)
	if err != nil {
		return nil, err
	}
	clusterK, err := parseIntInRange("CLUSTER_K", 5, domain.MinClusterK, domain.MaxClusterK)
	if err != nil {
		return nil, err
	}
	maxIterations, err := parseIntInRange("CLUSTER_MAX_ITERATIONS", domain.DefaultMaxIterations, 1, 10_000)
	if err != nil {
		return nil, err
	}
	horizon, err := parseIntInRange("FORECAST_HORIZON", domain.DefaultHorizon, 0, domain.MaxHorizon)
	if err != nil {
		return nil, err
	}
	rangeDays, err := parseIntInRange("REPORT_RANGE_DAYS", 0, 0, 3650)
	if err != nil {
		return nil, err
	}

	clusterMode, err := domain.ParseClusterMode(os.Getenv("CLUSTER_MODE"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLUSTER_MODE: %w", err)
	}

	schedule := os.Getenv("REPORT_SCHEDULE")
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid REPORT_SCHEDULE: %w", err)
		}
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-incidents"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "scored-incidents"),
		KafkaReportTopic:   sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "incident-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "incident-analytics"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		WindowSize:           windowSize,
		ClusterK:             clusterK,
		ClusterMode:          clusterMode,
		ClusterMaxIterations: maxIterations,
		ForecastHorizon:      horizon,

		ReportSchedule:  schedule,
		ReportRangeDays: rangeDays,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.ReportSchedule != "" && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when REPORT_SCHEDULE is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// parseIntInRange reads an integer variable, returning def when unset.
func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
