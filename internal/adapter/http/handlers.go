package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/incident-analytics-service/internal/analysis"
	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// maxRiskBody bounds the POST /api/v1/risk request body.
const maxRiskBody = 1 << 20

// Analytics is the analysis surface the API serves.
type Analytics interface {
	DefaultQuery() analysis.Query
	Report(ctx context.Context, q analysis.Query) (domain.Report, error)
	Clusters(ctx context.Context, q analysis.Query) ([]domain.Cluster, error)
	Forecast(ctx context.Context, q analysis.Query) (analysis.ForecastResult, error)
	Categories(ctx context.Context, q analysis.Query) ([]domain.CategoryStat, error)
	Hourly(ctx context.Context, q analysis.Query) (analysis.HourlyResult, error)
	Daily(ctx context.Context, q analysis.Query) ([]domain.DailyCount, error)
	Districts(ctx context.Context, q analysis.Query) ([]domain.DistrictStat, error)
	Severity(ctx context.Context, q analysis.Query) ([]domain.SeverityStat, error)
	Classifier(ctx context.Context, q analysis.Query) (domain.ClassifierReport, error)
	Score(ctx context.Context, raws []domain.RawIncident) ([]domain.ScoredIncident, error)
}

// paramError reports a query parameter that could not be parsed.
type paramError struct {
	name  string
	value string
	err   error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.name, e.value, e.err)
}

func (e *paramError) Unwrap() error { return e.err }

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Report)
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Clusters)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Forecast)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Categories)
}

func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Hourly)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Daily)
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Districts)
}

func (s *Server) handleSeverity(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Severity)
}

func (s *Server) handleClassifier(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.analytics.Classifier)
}

// handleRisk scores the posted raw incidents. The body is a JSON array of
// collector records; a single object is accepted as a one-element batch.
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRiskBody)
	raws, err := decodeRawIncidents(body)
	if err != nil {
		s.writeError(w, r, &paramError{name: "body", value: "request", err: err})
		return
	}

	scored, err := s.analytics.Score(r.Context(), raws)
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		s.writeError(w, r, err)
		return
	case err != nil:
		s.writeError(w, r, &paramError{name: "incidents", value: "request", err: err})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, scored)
}

// serve parses the common query parameters, runs fn, and writes its result.
func serve[T any](s *Server, w http.ResponseWriter, r *http.Request, fn func(context.Context, analysis.Query) (T, error)) {
	q, err := parseQuery(r, s.analytics.DefaultQuery())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := fn(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

// parseQuery overlays the range, k, mode, and horizon parameters on def.
func parseQuery(r *http.Request, def analysis.Query) (analysis.Query, error) {
	q := def
	values := r.URL.Query()

	if v := values.Get("range"); v != "" {
		days, err := parseRange(v)
		if err != nil {
			return q, &paramError{name: "range", value: v, err: err}
		}
		q.RangeDays = days
	}
	if v := values.Get("k"); v != "" {
		k, err := parseBounded(v, domain.MinClusterK, domain.MaxClusterK)
		if err != nil {
			return q, &paramError{name: "k", value: v, err: err}
		}
		q.K = k
	}
	if v := values.Get("mode"); v != "" {
		mode, err := domain.ParseClusterMode(v)
		if err != nil {
			return q, &paramError{name: "mode", value: v, err: err}
		}
		q.Mode = mode
	}
	if v := values.Get("horizon"); v != "" {
		h, err := parseBounded(v, 0, domain.MaxHorizon)
		if err != nil {
			return q, &paramError{name: "horizon", value: v, err: err}
		}
		q.Horizon = h
	}
	return q, nil
}

// parseRange accepts "all" or a non-negative day count.
func parseRange(v string) (int, error) {
	if strings.EqualFold(v, "all") {
		return 0, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if days < 0 {
		return 0, errors.New("must not be negative")
	}
	return days, nil
}

// parseBounded parses an integer in [lo, hi].
func parseBounded(v string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return n, nil
}

func decodeRawIncidents(body io.Reader) ([]domain.RawIncident, error) {
	var payload json.RawMessage
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		var one domain.RawIncident
		if err := json.Unmarshal(payload, &one); err != nil {
			return nil, fmt.Errorf("decode incident: %w", err)
		}
		return []domain.RawIncident{one}, nil
	}
	var many []domain.RawIncident
	if err := json.Unmarshal(payload, &many); err != nil {
		return nil, fmt.Errorf("decode incidents: %w", err)
	}
	return many, nil
}

// statusFor maps analysis errors to HTTP status codes.
func statusFor(err error) int {
	var pe *paramError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, domain.ErrInvalidClusterCount),
		errors.Is(err, domain.ErrInvalidHorizon):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("analytics request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("analytics request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
