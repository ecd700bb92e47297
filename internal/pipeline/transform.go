package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
)

// IncidentTransformer implements Transformer: it parses and validates a raw
// incident, fills a missing district by reverse geocoding, and scores it.
type IncidentTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates an IncidentTransformer. Pass a nil geocoder to
// disable district enrichment.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *IncidentTransformer {
	return &IncidentTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *IncidentTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.ScoredIncident, error) {
	rec, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.ScoredIncident{}, err
	}

	rec = domain.EnrichWithDistrict(ctx, rec, t.geocoder, t.logger)

	return domain.ScoreIncident(rec), nil
}
