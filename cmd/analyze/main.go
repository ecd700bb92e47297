// Command analyze builds the export report for an incident file without Kafka
// or the HTTP service. Rows that fail validation are reported and skipped.
//
// Usage:
//
//	go run ./cmd/analyze -in data/sample/incidents.csv -range 30 -k 5
//	go run ./cmd/analyze -in incidents.json -as-of 2024-12-31 -mode converge -out report.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/incident-analytics-service/internal/analysis"
	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	"github.com/couchcryptid/incident-analytics-service/internal/ingest"
	"github.com/couchcryptid/incident-analytics-service/internal/observability"
	"github.com/couchcryptid/incident-analytics-service/internal/store"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

type options struct {
	in        string
	out       string
	format    string
	asOf      string
	rangeDays int
	k         int
	mode      string
	horizon   int
	seed      uint64
}

func main() {
	var o options
	flag.StringVar(&o.in, "in", "", "incident file (CSV or JSON array)")
	flag.StringVar(&o.out, "out", "", "report output path (default stdout)")
	flag.StringVar(&o.format, "format", "", "input format: csv or json (default from file extension)")
	flag.StringVar(&o.asOf, "as-of", "", "analysis date YYYY-MM-DD (default today)")
	flag.IntVar(&o.rangeDays, "range", 0, "only include the last N days (0 = all time)")
	flag.IntVar(&o.k, "k", 5, "number of spatial clusters")
	flag.StringVar(&o.mode, "mode", string(domain.ModeSinglePass), "cluster mode: single-pass or converge")
	flag.IntVar(&o.horizon, "horizon", domain.DefaultHorizon, "forecast days")
	flag.Uint64Var(&o.seed, "seed", 0, "random seed (0 = random)")
	flag.Parse()

	if o.in == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := newLogger(o.out)
	if err := run(context.Background(), o, logger); err != nil {
		logger.Error("analyze failed", "error", err)
		os.Exit(1)
	}
}

// newLogger returns the shared text logger. The shared logger writes to
// stdout, so when the report itself goes to stdout logs move to stderr.
func newLogger(out string) *slog.Logger {
	if out != "" {
		return sharedobs.NewLogger("info", "text")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	return logger
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	mode, err := domain.ParseClusterMode(o.mode)
	if err != nil {
		return err
	}

	asOf := domain.Today()
	if o.asOf != "" {
		if asOf, err = domain.ParseDate(o.asOf); err != nil {
			return fmt.Errorf("parse -as-of: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(asOf.Add(12 * time.Hour)))
		defer domain.SetClock(nil)
	}

	records, err := load(o.in, o.format, asOf, logger)
	if err != nil {
		return err
	}

	opts := analysis.Options{ClusterK: o.k, ClusterMode: mode, ForecastHorizon: o.horizon}
	if o.seed != 0 {
		seed := o.seed
		opts.NewRand = func() *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }
	}
	svc := analysis.New(store.Static(records), opts, logger, observability.NewUnregisteredMetrics())

	q := svc.DefaultQuery()
	q.RangeDays = o.rangeDays
	report, err := svc.Report(ctx, q)
	if err != nil {
		return err
	}

	logger.Info("report built",
		"records", report.TotalIncidents,
		"date_range", report.DateRange,
		"clusters", report.ClusterCount,
		"daily_average", report.TimeSeries.DailyAverage,
	)
	return writeReport(o.out, report)
}

// load parses the input file. Row errors are logged and do not stop the run.
func load(path, format string, asOf domain.Date, logger *slog.Logger) ([]domain.IncidentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	var records []domain.IncidentRecord
	switch format {
	case "csv":
		records, err = ingest.ParseCSV(f, asOf)
	case "json":
		records, err = ingest.ParseJSON(f, asOf)
	default:
		return nil, fmt.Errorf("unknown input format %q: want csv or json", format)
	}

	var rowErr *ingest.RowError
	if err != nil && !errors.As(err, &rowErr) {
		return nil, err
	}
	if err != nil {
		logger.Warn("skipped invalid rows", "accepted", len(records), "error", err)
	}
	return records, nil
}

func writeReport(path string, report domain.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	_, err = w.Write(data)
	return err
}
