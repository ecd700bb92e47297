// Package scheduler publishes report snapshots on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/incident-analytics-service/internal/analysis"
	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	"github.com/couchcryptid/incident-analytics-service/internal/observability"
	"github.com/robfig/cron/v3"
)

const defaultRunTimeout = 30 * time.Second

// ReportSource builds analysis reports.
type ReportSource interface {
	DefaultQuery() analysis.Query
	Report(ctx context.Context, q analysis.Query) (domain.Report, error)
}

// Publisher delivers a finished report.
type Publisher interface {
	PublishReport(ctx context.Context, report domain.Report) error
}

// Scheduler runs the report job. Overlapping runs are skipped.
type Scheduler struct {
	cron       *cron.Cron
	source     ReportSource
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	runTimeout time.Duration
}

// New registers the report job under a standard five-field cron spec.
func New(spec string, source ReportSource, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		source:     source,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		runTimeout: defaultRunTimeout,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule report job %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("report scheduler started")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop report scheduler: %w", ctx.Err())
	}
}

// RunOnce builds one report and publishes it. An empty window is skipped
// rather than treated as a failure.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	report, err := s.source.Report(ctx, s.source.DefaultQuery())
	if errors.Is(err, domain.ErrEmptyInput) {
		s.metrics.ReportsPublished.WithLabelValues("skipped").Inc()
		s.logger.Info("report skipped, no incidents in range")
		return nil
	}
	if err != nil {
		s.metrics.ReportsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("run report job: %w", err)
	}

	if err := s.publisher.PublishReport(ctx, report); err != nil {
		s.metrics.ReportsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("run report job: %w", err)
	}
	s.metrics.ReportsPublished.WithLabelValues("success").Inc()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled report failed", "error", err)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
