package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/incident-analytics-service/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "json"})

	require.NotNil(t, logger)
	assert.Same(t, logger, slog.Default())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestNewUnregisteredMetrics_Registerable(t *testing.T) {
	m := NewUnregisteredMetrics()
	reg := prometheus.NewRegistry()

	require.NoError(t, reg.Register(m.AnalysisDuration))
	require.NoError(t, reg.Register(m.ReportsPublished))

	m.AnalysisDuration.WithLabelValues("clusters").Observe(0.01)
	m.ReportsPublished.WithLabelValues("success").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				names[f.GetName()] = c.GetValue()
				continue
			}
			names[f.GetName()] = float64(metric.GetHistogram().GetSampleCount())
		}
	}
	assert.InDelta(t, 1, names["incident_analytics_reports_published_total"], 0)
	assert.InDelta(t, 1, names["incident_analytics_analysis_stage_duration_seconds"], 0)
}
