package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ReportInput carries already-computed analytics for one date range.
type ReportInput struct {
	RangeDays      int
	AsOf           Date
	Total          int
	TodayCount     int
	MalformedTimes int
	Categories     []CategoryStat
	Hourly         []HourlyStat
	Daily          []DailyCount
	Districts      []DistrictStat
	Severities     []SeverityStat
	Clusters       []Cluster
	Forecast       []DailyCount
	Classifier     *ClassifierReport
}

// Report is the exportable analysis document.
type Report struct {
	ID                string            `json:"id"`
	GeneratedAt       time.Time         `json:"generated_at"`
	DateRange         string            `json:"date_range"`
	AsOf              Date              `json:"as_of"`
	TotalIncidents    int               `json:"total_incidents"`
	CategoryBreakdown []CategoryStat    `json:"category_breakdown"`
	DistrictBreakdown []DistrictStat    `json:"district_breakdown"`
	SeverityBreakdown []SeverityStat    `json:"severity_breakdown"`
	HourlyBreakdown   []HourlyStat      `json:"hourly_breakdown"`
	ClusterCount      int               `json:"clusters"`
	Hotspots          []HotspotSummary  `json:"hotspots"`
	TimeSeries        TimeSeriesSummary `json:"time_series_summary"`
	Forecast          []DailyCount      `json:"forecast,omitempty"`
	ForecastSummary   ForecastSummary   `json:"forecast_summary"`
	Summary           ReportSummary     `json:"summary"`
	Classifier        *ClassifierReport `json:"classifier,omitempty"`
}

// HotspotSummary describes a cluster without its member records.
type HotspotSummary struct {
	ID       int      `json:"id"`
	Centroid Centroid `json:"centroid"`
	Count    int      `json:"count"`
	Share    float64  `json:"share_percent"`
	Severity Severity `json:"severity"`
}

// TimeSeriesSummary holds the daily average and the busiest day.
type TimeSeriesSummary struct {
	Days         int         `json:"days"`
	DailyAverage int         `json:"daily_average"`
	PeakDay      *DailyCount `json:"peak_day,omitempty"`
}

// ReportSummary holds the headline lines of a report.
type ReportSummary struct {
	TopCategory           string `json:"top_category,omitempty"`
	TopDistrict           string `json:"top_district,omitempty"`
	HighSeverityClusters  int    `json:"high_severity_clusters"`
	HighSeverityIncidents int    `json:"high_severity_incidents"`
	PeakHour              int    `json:"peak_hour"`
	PeakDayCount          int    `json:"peak_day_count"`
	TodayCount            int    `json:"today_count"`
	MalformedTimes        int    `json:"malformed_times,omitempty"`
}

// RangeLabel describes a date-range filter: "All time" or "Last N days".
func RangeLabel(days int) string {
	if days <= 0 {
		return "All time"
	}
	return fmt.Sprintf("Last %d days", days)
}

// AssembleReport bundles the inputs into a Report, only picking maxima and
// counting tiers over collections that were computed upstream.
func AssembleReport(in ReportInput) Report {
	r := Report{
		ID:                uuid.NewString(),
		GeneratedAt:       clock.Now().UTC(),
		DateRange:         RangeLabel(in.RangeDays),
		AsOf:              in.AsOf,
		TotalIncidents:    in.Total,
		CategoryBreakdown: in.Categories,
		DistrictBreakdown: in.Districts,
		SeverityBreakdown: in.Severities,
		HourlyBreakdown:   in.Hourly,
		ClusterCount:      len(in.Clusters),
		Hotspots:          summarizeClusters(in.Clusters, in.Total),
		Forecast:          in.Forecast,
		ForecastSummary:   SummarizeForecast(in.Daily, in.Forecast),
		Classifier:        in.Classifier,
		Summary: ReportSummary{
			TodayCount:     in.TodayCount,
			MalformedTimes: in.MalformedTimes,
		},
	}

	r.TimeSeries.Days = len(in.Daily)
	if len(in.Daily) > 0 {
		r.TimeSeries.DailyAverage = int(math.Round(float64(in.Total) / float64(len(in.Daily))))
	}
	if peak, ok := PeakDay(in.Daily); ok {
		r.TimeSeries.PeakDay = &peak
		r.Summary.PeakDayCount = peak.Count
	}
	if peak, ok := PeakHour(in.Hourly); ok {
		r.Summary.PeakHour = peak.Hour
	}
	if len(in.Categories) > 0 {
		r.Summary.TopCategory = in.Categories[0].Category
	}
	if len(in.Districts) > 0 {
		r.Summary.TopDistrict = in.Districts[0].District
	}
	for _, s := range in.Severities {
		if s.Severity == SeverityHigh {
			r.Summary.HighSeverityIncidents = s.Count
		}
	}
	for i := range in.Clusters {
		if in.Clusters[i].Severity == SeverityHigh {
			r.Summary.HighSeverityClusters++
		}
	}
	return r
}

func summarizeClusters(clusters []Cluster, total int) []HotspotSummary {
	out := make([]HotspotSummary, len(clusters))
	for i := range clusters {
		c := &clusters[i]
		out[i] = HotspotSummary{
			ID:       c.ID,
			Centroid: c.Centroid,
			Count:    len(c.Members),
			Severity: c.Severity,
		}
		if total > 0 {
			out[i].Share = math.Round(float64(len(c.Members))/float64(total)*1000) / 10
		}
	}
	return out
}
