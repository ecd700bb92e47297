package domain

// Contributions are kept in tenths so that sums like 0.3+0.4+0.3 are exact.
var (
	highRiskCategories   = map[string]bool{"Assault": true, "Robbery": true, "Burglary": true}
	mediumRiskCategories = map[string]bool{"Theft": true, "Vandalism": true}
)

// RiskScore rates a record in [0, 1] from its hour, category, and severity.
// See the package documentation for the bucket table.
func RiskScore(rec IncidentRecord) float64 {
	tenths := timeRisk(rec.Time) + categoryRisk(rec.Category) + severityRisk(rec.Severity)
	return float64(min(tenths, 10)) / 10
}

// timeRisk checks the night window first, then the evening and early-morning
// window. An unparseable hour scores the default bucket.
func timeRisk(t string) int {
	hour, ok := parseHour(t)
	switch {
	case !ok:
		return 1
	case hour >= 22 || hour <= 5:
		return 3
	case hour >= 18 || hour <= 8:
		return 2
	default:
		return 1
	}
}

func categoryRisk(category string) int {
	switch {
	case highRiskCategories[category]:
		return 4
	case mediumRiskCategories[category]:
		return 2
	default:
		return 1
	}
}

func severityRisk(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}
