package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskScore(t *testing.T) {
	tests := []struct {
		name     string
		time     string
		category string
		severity Severity
		expected float64
	}{
		{"night assault high is capped", "23:00", testAssault, SeverityHigh, 1.0},
		{"midday theft low", "12:00", "Theft", SeverityLow, 0.4},
		{"evening fraud medium", "19:30", "Fraud", SeverityMedium, 0.5},
		{"early morning burglary medium", "05:59", "Burglary", SeverityMedium, 0.9},
		{"morning vandalism low", "08:00", "Vandalism", SeverityLow, 0.5},
		{"just after morning window", "09:00", "Robbery", SeverityLow, 0.6},
		{"evening edge", "18:00", "Other", SeverityLow, 0.4},
		{"night edge", "22:00", "Other", SeverityLow, 0.5},
		{"malformed time scores default bucket", "late", "Theft", SeverityHigh, 0.6},
		{"category match is exact", "12:00", "assault", SeverityLow, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := IncidentRecord{Time: tt.time, Category: tt.category, Severity: tt.severity}
			assert.InDelta(t, tt.expected, RiskScore(rec), 1e-9)
		})
	}
}

func TestRiskScore_Bounds(t *testing.T) {
	for _, clock := range []string{"00:00", "06:00", "12:00", "20:00", "xx"} {
		for _, category := range []string{testAssault, "Theft", "Unknown"} {
			for _, sev := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
				score := RiskScore(IncidentRecord{Time: clock, Category: category, Severity: sev})
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 1.0)
			}
		}
	}
}
