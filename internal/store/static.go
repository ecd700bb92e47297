package store

import (
	"context"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
)

// Static is a fixed record set, used when analysis runs over an imported file
// instead of the live window.
type Static []domain.IncidentRecord

// Snapshot returns a copy of the records.
func (s Static) Snapshot(_ context.Context) ([]domain.IncidentRecord, error) {
	out := make([]domain.IncidentRecord, len(s))
	copy(out, s)
	return out, nil
}
