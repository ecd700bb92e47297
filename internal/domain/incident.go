package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity is the reported seriousness of an incident, or the tier of a cluster.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity matches s case-insensitively against the known levels.
// An empty string defaults to Medium.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return "", fmt.Errorf("parse severity: unknown level %q", s)
	}
}

const dateLayout = "2006-01-02"

// Date is a calendar day in UTC.
type Date struct {
	time.Time
}

// NewDate returns the calendar day y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

var dateLayouts = []string{dateLayout, "2006/01/02", "01/02/2006", time.RFC3339}

// ParseDate accepts the layouts listed in the package documentation.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("parse date: unrecognized format %q", s)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IncidentRecord is a single defaulted incident report. Records are values;
// nothing in this package modifies one after it is created.
type IncidentRecord struct {
	ID          string   `json:"id" validate:"required"`
	Date        Date     `json:"date"`
	Time        string   `json:"time"`
	Category    string   `json:"category" validate:"required"`
	Description string   `json:"description"`
	Latitude    float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64  `json:"longitude" validate:"gte=-180,lte=180"`
	District    string   `json:"district,omitempty"`
	Severity    Severity `json:"severity" validate:"oneof=Low Medium High"`
}

// RawIncident is the flat JSON structure produced by the collector. Every
// field is a string so that missing or malformed columns can be defaulted
// instead of failing the whole message.
type RawIncident struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Latitude    string `json:"latitude"`
	Lat         string `json:"lat"`
	Longitude   string `json:"longitude"`
	Lng         string `json:"lng"`
	Lon         string `json:"lon"`
	District    string `json:"district"`
	Severity    string `json:"severity"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ScoredIncident is the enriched record destined for the sink topic.
type ScoredIncident struct {
	IncidentRecord
	RiskScore   float64   `json:"risk_score"`
	ProcessedAt time.Time `json:"processed_at"`
}
