// Package analysis runs the incident analytics over a snapshot of recent
// records: aggregation, clustering, forecasting, risk scoring, and report
// assembly. Every call works on its own copy of the data and its own random
// source, so concurrent callers never share state.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	"github.com/couchcryptid/incident-analytics-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Source supplies the records an analysis runs against.
type Source interface {
	Snapshot(ctx context.Context) ([]domain.IncidentRecord, error)
}

// Options holds the service defaults applied when a Query leaves a field unset.
type Options struct {
	ClusterK        int
	ClusterMode     domain.ClusterMode
	MaxIterations   int
	ForecastHorizon int
	RangeDays       int

	// NewRand returns the random source for one call. Nil uses a randomly
	// seeded PCG generator.
	NewRand func() *rand.Rand
}

// Query selects the date range and parameters for one analysis call.
type Query struct {
	RangeDays int // 0 means all time
	K         int
	Mode      domain.ClusterMode
	Horizon   int
}

// Service runs analytics over records from a Source.
type Service struct {
	source  Source
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Service. Unset options fall back to the domain defaults. A zero
// ForecastHorizon is kept as is; a negative one selects the default.
func New(source Source, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if opts.ClusterK <= 0 {
		opts.ClusterK = 5
	}
	if opts.ClusterMode == "" {
		opts.ClusterMode = domain.ModeSinglePass
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = domain.DefaultMaxIterations
	}
	if opts.ForecastHorizon < 0 {
		opts.ForecastHorizon = domain.DefaultHorizon
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	return &Service{source: source, opts: opts, logger: logger, metrics: metrics}
}

// DefaultQuery returns a Query populated from the service options.
func (s *Service) DefaultQuery() Query {
	return Query{
		RangeDays: s.opts.RangeDays,
		K:         s.opts.ClusterK,
		Mode:      s.opts.ClusterMode,
		Horizon:   s.opts.ForecastHorizon,
	}
}

// HourlyResult is the hourly breakdown plus the number of skipped records.
type HourlyResult struct {
	Hours     []domain.HourlyStat `json:"hours"`
	Malformed int                 `json:"malformed"`
}

// ForecastResult is the historical series, the projection, and their comparison.
type ForecastResult struct {
	History  []domain.DailyCount    `json:"history"`
	Forecast []domain.DailyCount    `json:"forecast"`
	Summary  domain.ForecastSummary `json:"summary"`
}

// Report assembles the full analysis document. Independent stages run
// concurrently, each with its own random source.
func (s *Service) Report(ctx context.Context, q Query) (domain.Report, error) {
	start := time.Now()
	records, asOf, err := s.records(ctx, q)
	if err != nil {
		return domain.Report{}, fmt.Errorf("build report: %w", err)
	}
	if len(records) == 0 {
		return domain.Report{}, fmt.Errorf("build report: %w", domain.ErrEmptyInput)
	}

	in := domain.ReportInput{
		RangeDays:  q.RangeDays,
		AsOf:       asOf,
		Total:      len(records),
		TodayCount: domain.CountOn(records, asOf),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Categories, err = timed(s, "categories", func() ([]domain.CategoryStat, error) {
			return domain.CategoryStats(records)
		})
		return err
	})
	g.Go(func() error {
		hourly, _ := timed(s, "hourly", func() (HourlyResult, error) {
			return s.hourly(records), nil
		})
		in.Hourly = hourly.Hours
		in.MalformedTimes = hourly.Malformed
		return nil
	})
	g.Go(func() error {
		in.Daily = domain.DailyCounts(records)
		var err error
		in.Forecast, err = timed(s, "forecast", func() ([]domain.DailyCount, error) {
			return domain.NewForecaster(s.opts.NewRand()).Forecast(in.Daily, q.Horizon)
		})
		return err
	})
	g.Go(func() error {
		var err error
		in.Clusters, err = s.cluster(gctx, records, q)
		return err
	})
	g.Go(func() error {
		in.Districts, _ = timed(s, "districts", func() ([]domain.DistrictStat, error) {
			return domain.DistrictStats(records), nil
		})
		in.Severities, _ = timed(s, "severity", func() ([]domain.SeverityStat, error) {
			return domain.SeverityStats(records), nil
		})
		return nil
	})
	g.Go(func() error {
		report, err := timed(s, "classifier", func() (domain.ClassifierReport, error) {
			return domain.EvaluateClassifier(records, s.opts.NewRand())
		})
		if err != nil {
			return err
		}
		in.Classifier = &report
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Report{}, fmt.Errorf("build report: %w", err)
	}

	report := domain.AssembleReport(in)
	s.metrics.AnalysisDuration.WithLabelValues("report").Observe(time.Since(start).Seconds())
	s.logger.Debug("report assembled",
		"report_id", report.ID,
		"records", report.TotalIncidents,
		"clusters", report.ClusterCount,
		"date_range", report.DateRange,
	)
	return report, nil
}

// Clusters partitions the selected records into spatial hotspots.
func (s *Service) Clusters(ctx context.Context, q Query) ([]domain.Cluster, error) {
	records, _, err := s.records(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("cluster incidents: %w", err)
	}
	return s.cluster(ctx, records, q)
}

// Forecast projects the daily series of the selected records.
func (s *Service) Forecast(ctx context.Context, q Query) (ForecastResult, error) {
	records, _, err := s.records(ctx, q)
	if err != nil {
		return ForecastResult{}, fmt.Errorf("forecast incidents: %w", err)
	}

	history := domain.DailyCounts(records)
	forecast, err := timed(s, "forecast", func() ([]domain.DailyCount, error) {
		return domain.NewForecaster(s.opts.NewRand()).Forecast(history, q.Horizon)
	})
	if err != nil {
		return ForecastResult{}, err
	}
	return ForecastResult{
		History:  history,
		Forecast: forecast,
		Summary:  domain.SummarizeForecast(history, forecast),
	}, nil
}

// Categories returns the category breakdown of the selected records.
func (s *Service) Categories(ctx context.Context, q Query) ([]domain.CategoryStat, error) {
	records, _, err := s.records(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	return timed(s, "categories", func() ([]domain.CategoryStat, error) {
		return domain.CategoryStats(records)
	})
}

// Hourly returns the 24-hour breakdown of the selected records.
func (s *Service) Hourly(ctx context.Context, q Query) (HourlyResult, error) {
	records, _, err := s.records(ctx, q)
	if err != nil {
		return HourlyResult{}, fmt.Errorf("hourly stats: %w", err)
	}
	return timed(s, "hourly", func() (HourlyResult, error) {
		return s.hourly(records), nil
	})
}

// Daily returns the per-day counts of the selected records.
func (s *Service) Daily(ctx context.Context, q Query) ([]domain.DailyCount, error) {
	records, _, err := s.records(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	return timed(s, "daily", func() ([]domain.DailyCount, error) {
		return domain.DailyCounts(records), nil
	})
}

// Districts returns the district breakdown of the selected records.
func (s *Service) Districts(ctx context.Context, q Query) ([]domain.DistrictStat, error) {
	records, _, err := s.records(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("district stats: %w", err)
	}
	return timed(s, "districts", func() ([]domain.DistrictStat, error) {
		return domain.DistrictStats(records), nil
	})
}

// Severity returns the severity breakdown of the selected records.
func (s *Service) Severity(ctx context.Context, q Query) ([]domain.SeverityStat, error) {
	records, _, err := s.records(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("severity stats: %w", err)
	}
	return timed(s, "severity", func() ([]domain.SeverityStat, error) {
		return domain.SeverityStats(records), nil
	})
}

// Classifier returns the stub classifier scores for the selected records.
func (s *Service) Classifier(ctx context.Context, q Query) (domain.ClassifierReport, error) {
	records, _, err := s.records(ctx, q)
	if err != nil {
		return domain.ClassifierReport{}, fmt.Errorf("evaluate classifier: %w", err)
	}
	return timed(s, "classifier", func() (domain.ClassifierReport, error) {
		return domain.EvaluateClassifier(records, s.opts.NewRand())
	})
}

// Score normalizes raw incidents and rates each one. Elements that fail
// validation are reported together and nothing is scored.
func (s *Service) Score(_ context.Context, raws []domain.RawIncident) ([]domain.ScoredIncident, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("score incidents: %w", domain.ErrEmptyInput)
	}

	today := domain.Today()
	scored := make([]domain.ScoredIncident, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		rec, err := domain.NormalizeRawIncident(raw, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("incident %d: %w", i, err))
			continue
		}
		scored = append(scored, domain.ScoreIncident(rec))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return scored, nil
}

// records snapshots the source and applies the query's date range. The as-of
// date is the package clock's current day.
func (s *Service) records(ctx context.Context, q Query) ([]domain.IncidentRecord, domain.Date, error) {
	all, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, domain.Date{}, fmt.Errorf("snapshot incidents: %w", err)
	}
	asOf := domain.Today()
	return domain.FilterByRange(all, asOf, q.RangeDays), asOf, nil
}

func (s *Service) cluster(ctx context.Context, records []domain.IncidentRecord, q Query) ([]domain.Cluster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode := q.Mode
	if mode == "" {
		mode = s.opts.ClusterMode
	}
	clusters, err := timed(s, "clusters", func() ([]domain.Cluster, error) {
		return domain.NewClusterer(s.opts.NewRand(), mode, s.opts.MaxIterations).Cluster(records, q.K)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ClustersFound.Set(float64(len(clusters)))
	return clusters, nil
}

func (s *Service) hourly(records []domain.IncidentRecord) HourlyResult {
	hours, err := domain.HourlyStats(records)
	malformed := countMalformed(err)
	if malformed > 0 {
		s.metrics.MalformedTimes.Add(float64(malformed))
		s.logger.Warn("skipped records with malformed time", "count", malformed, "error", err)
	}
	return HourlyResult{Hours: hours, Malformed: malformed}
}

// countMalformed counts the *MalformedTimeError values joined into err.
func countMalformed(err error) int {
	if err == nil {
		return 0
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		var m *domain.MalformedTimeError
		if errors.As(err, &m) {
			return 1
		}
		return 0
	}
	n := 0
	for _, e := range joined.Unwrap() {
		var m *domain.MalformedTimeError
		if errors.As(e, &m) {
			n++
		}
	}
	return n
}

// timed runs one analysis stage and records its duration.
func timed[T any](s *Service, stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	s.metrics.AnalysisDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return v, err
}
