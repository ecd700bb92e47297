// Package store keeps the recent incident history that analysis runs against.
package store

import (
	"context"
	"sync"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	"github.com/couchcryptid/incident-analytics-service/internal/observability"
)

// Window is a bounded, thread-safe buffer of the most recent incidents.
// When full, each new record evicts the oldest one.
type Window struct {
	mu      sync.RWMutex
	buf     []domain.IncidentRecord
	head    int // index of the oldest record
	size    int
	metrics *observability.Metrics
}

// NewWindow creates a Window holding at most capacity records. A nil metrics
// disables the window size gauge.
func NewWindow(capacity int, metrics *observability.Metrics) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		buf:     make([]domain.IncidentRecord, capacity),
		metrics: metrics,
	}
}

// Add appends records in order, evicting the oldest when the window is full.
func (w *Window) Add(records ...domain.IncidentRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range records {
		tail := (w.head + w.size) % len(w.buf)
		w.buf[tail] = records[i]
		if w.size < len(w.buf) {
			w.size++
		} else {
			w.head = (w.head + 1) % len(w.buf)
		}
	}
	if w.metrics != nil {
		w.metrics.WindowSize.Set(float64(w.size))
	}
}

// LoadBatch stores the records of a scored batch. It satisfies the pipeline's
// loader contract so the window can sit next to the Kafka writer.
func (w *Window) LoadBatch(_ context.Context, incidents []domain.ScoredIncident) error {
	records := make([]domain.IncidentRecord, len(incidents))
	for i := range incidents {
		records[i] = incidents[i].IncidentRecord
	}
	w.Add(records...)
	return nil
}

// Snapshot returns a copy of the held records, oldest first.
func (w *Window) Snapshot(_ context.Context) ([]domain.IncidentRecord, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]domain.IncidentRecord, w.size)
	for i := range out {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out, nil
}

// Len returns how many records the window holds.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Cap returns the maximum number of records the window holds.
func (w *Window) Cap() int {
	return len(w.buf)
}
