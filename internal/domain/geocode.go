package domain

import (
	"context"
	"log/slog"
)

// EnrichWithDistrict fills an empty district from reverse geocoding. The
// record is returned unchanged when geocoder is nil, the district is already
// set, the lookup fails, or the provider has no place name (graceful degradation).
func EnrichWithDistrict(ctx context.Context, rec IncidentRecord, geocoder Geocoder, logger *slog.Logger) IncidentRecord {
	if geocoder == nil || rec.District != "" {
		return rec
	}

	result, err := geocoder.ReverseGeocode(ctx, rec.Latitude, rec.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"incident_id", rec.ID,
			"lat", rec.Latitude,
			"lon", rec.Longitude,
			"error", err,
		)
		return rec
	}
	if result.PlaceName != "" {
		rec.District = result.PlaceName
	}
	return rec
}
