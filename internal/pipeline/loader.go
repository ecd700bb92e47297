package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
)

// MultiLoader hands each batch to several loaders in order. The first failure
// stops the batch so offsets are not committed; loaders that already ran may
// see the batch again on retry.
type MultiLoader []BatchLoader

func (m MultiLoader) LoadBatch(ctx context.Context, incidents []domain.ScoredIncident) error {
	for i, l := range m {
		if err := l.LoadBatch(ctx, incidents); err != nil {
			return fmt.Errorf("load batch (loader %d): %w", i, err)
		}
	}
	return nil
}
