package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Fallback values applied when the upstream record omits a field.
const (
	DefaultCategory    = "Unknown"
	DefaultDescription = "No description"
	DefaultTime        = "00:00"
	DefaultLatitude    = 40.7128
	DefaultLongitude   = -74.0060
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseRawEvent deserializes a RawEvent's value into an IncidentRecord.
// The message timestamp supplies the date when the record carries none.
func ParseRawEvent(raw RawEvent) (IncidentRecord, error) {
	var rec RawIncident
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return IncidentRecord{}, fmt.Errorf("parse raw event: %w", err)
	}

	fallback := raw.Timestamp
	if fallback.IsZero() {
		fallback = clock.Now()
	}

	incident, err := NormalizeRawIncident(rec, DateOf(fallback))
	if err != nil {
		return IncidentRecord{}, fmt.Errorf("parse raw event: %w", err)
	}
	return incident, nil
}

// NormalizeRawIncident applies the ingestion defaults to a raw record and
// validates the result. fallbackDate is used when the record has no date.
func NormalizeRawIncident(rec RawIncident, fallbackDate Date) (IncidentRecord, error) {
	date := fallbackDate
	if s := strings.TrimSpace(rec.Date); s != "" {
		parsed, err := ParseDate(s)
		if err != nil {
			return IncidentRecord{}, err
		}
		date = parsed
	}

	severity, err := ParseSeverity(rec.Severity)
	if err != nil {
		return IncidentRecord{}, err
	}

	lat := parseFloatOr(firstNonEmpty(rec.Latitude, rec.Lat), DefaultLatitude)
	lng := parseFloatOr(firstNonEmpty(rec.Longitude, rec.Lng, rec.Lon), DefaultLongitude)

	incident := IncidentRecord{
		ID:          strings.TrimSpace(rec.ID),
		Date:        date,
		Time:        orDefault(rec.Time, DefaultTime),
		Category:    orDefault(rec.Category, DefaultCategory),
		Description: orDefault(rec.Description, DefaultDescription),
		Latitude:    lat,
		Longitude:   lng,
		District:    strings.TrimSpace(rec.District),
		Severity:    severity,
	}
	if incident.ID == "" {
		incident.ID = generateID(incident)
	}

	if err := ValidateIncident(incident); err != nil {
		return IncidentRecord{}, err
	}
	return incident, nil
}

// ValidateIncident checks coordinate ranges, severity, and required fields.
func ValidateIncident(rec IncidentRecord) error {
	if err := validate.Struct(rec); err != nil {
		return fmt.Errorf("validate incident %s: %w", rec.ID, err)
	}
	return nil
}

// ScoreIncident pairs a record with its risk score and processing time.
func ScoreIncident(rec IncidentRecord) ScoredIncident {
	return ScoredIncident{
		IncidentRecord: rec,
		RiskScore:      RiskScore(rec),
		ProcessedAt:    clock.Now(),
	}
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseFloatOr parses s as float64, returning def when s is empty or invalid.
func parseFloatOr(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// generateID produces a deterministic ID from the record's key fields so that
// replaying the same message yields the same identifier.
func generateID(rec IncidentRecord) string {
	input := fmt.Sprintf("%s|%s|%s|%.5f|%.5f|%s",
		rec.Category, rec.Date, rec.Time, rec.Latitude, rec.Longitude, rec.Description)
	hash := sha256.Sum256([]byte(input))
	return "incident-" + hex.EncodeToString(hash[:8])
}

// parseHour extracts the hour from an "HH:MM" time. A value without a colon
// uses its leading two characters.
func parseHour(t string) (int, bool) {
	t = strings.TrimSpace(t)
	token, _, found := strings.Cut(t, ":")
	if !found && len(t) > 2 {
		token = t[:2]
	}
	if token == "" || len(token) > 2 || strings.TrimLeft(token, "0123456789") != "" {
		return 0, false
	}
	hour, err := strconv.Atoi(token)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

// ProcessedAtHeader formats a processing timestamp for message headers.
func ProcessedAtHeader(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
