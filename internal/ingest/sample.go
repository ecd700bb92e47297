package ingest

import (
	"fmt"
	"math/rand/v2"

	"github.com/couchcryptid/incident-analytics-service/internal/domain"
)

var (
	sampleCategories = []string{"Theft", "Assault", "Burglary", "Vandalism", "Drug Offense", "Fraud", "Robbery"}
	sampleDistricts  = []string{"Downtown", "Northside", "Southside", "Westend", "Eastside"}
	sampleSeverities = []domain.Severity{domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh}

	// Lower Manhattan, Midtown, and Liberty Island.
	sampleHotspots = []domain.Centroid{
		{Lat: 40.7128, Lng: -74.0060},
		{Lat: 40.7589, Lng: -73.9851},
		{Lat: 40.6892, Lng: -74.0445},
	}
)

const (
	sampleSpreadDegrees = 0.05
	sampleSpanDays      = 365
)

// GenerateSample draws n synthetic incidents around three fixed hotspots,
// dated within a year after baseDate. The same rng state yields the same records.
func GenerateSample(rng *rand.Rand, n int, baseDate domain.Date) []domain.IncidentRecord {
	records := make([]domain.IncidentRecord, n)
	for i := range records {
		hotspot := sampleHotspots[rng.IntN(len(sampleHotspots))]
		records[i] = domain.IncidentRecord{
			ID:          fmt.Sprintf("crime_%d", i+1),
			Date:        baseDate.AddDays(rng.IntN(sampleSpanDays)),
			Time:        fmt.Sprintf("%02d:%02d", rng.IntN(24), rng.IntN(60)),
			Category:    sampleCategories[rng.IntN(len(sampleCategories))],
			Description: fmt.Sprintf("Crime incident %d", i+1),
			Latitude:    hotspot.Lat + (rng.Float64()-0.5)*sampleSpreadDegrees,
			Longitude:   hotspot.Lng + (rng.Float64()-0.5)*sampleSpreadDegrees,
			District:    sampleDistricts[rng.IntN(len(sampleDistricts))],
			Severity:    sampleSeverities[rng.IntN(len(sampleSeverities))],
		}
	}
	return records
}

// ToRaw converts records back into the stream's raw message shape.
func ToRaw(records []domain.IncidentRecord) []domain.RawIncident {
	out := make([]domain.RawIncident, len(records))
	for i := range records {
		rec := &records[i]
		out[i] = domain.RawIncident{
			ID:          rec.ID,
			Date:        rec.Date.String(),
			Time:        rec.Time,
			Category:    rec.Category,
			Description: rec.Description,
			Latitude:    fmt.Sprintf("%.6f", rec.Latitude),
			Longitude:   fmt.Sprintf("%.6f", rec.Longitude),
			District:    rec.District,
			Severity:    string(rec.Severity),
		}
	}
	return out
}
