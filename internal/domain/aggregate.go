package domain

import (
	"errors"
	"math"
	"sort"
)

// CategoryStat is the share of records in one category.
type CategoryStat struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// HourlyStat is the number of records in one hour of the day.
type HourlyStat struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// DailyCount is the number of records on one date. Predicted marks forecast points.
type DailyCount struct {
	Date      Date `json:"date"`
	Count     int  `json:"count"`
	Predicted bool `json:"predicted,omitempty"`
}

// DistrictStat is the number of records reported in one district.
type DistrictStat struct {
	District string `json:"district"`
	Count    int    `json:"count"`
}

// SeverityStat is the number of records at one severity level.
type SeverityStat struct {
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}

// CategoryStats groups records by exact category, ordered by count descending
// (ties by name). Percentages are rounded independently and need not sum to 100.
func CategoryStats(records []IncidentRecord) ([]CategoryStat, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	counts := make(map[string]int)
	for i := range records {
		counts[records[i].Category]++
	}

	total := float64(len(records))
	stats := make([]CategoryStat, 0, len(counts))
	for category, count := range counts {
		stats = append(stats, CategoryStat{
			Category:   category,
			Count:      count,
			Percentage: int(math.Round(float64(count) / total * 100)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Category < stats[j].Category
	})
	return stats, nil
}

// HourlyStats counts records per hour of day and always returns 24 entries.
// Records with a malformed time are left out; the returned error joins one
// *MalformedTimeError per skipped record and the stats remain usable.
func HourlyStats(records []IncidentRecord) ([]HourlyStat, error) {
	var counts [24]int
	var errs []error
	for i := range records {
		hour, ok := parseHour(records[i].Time)
		if !ok {
			errs = append(errs, &MalformedTimeError{RecordID: records[i].ID, Time: records[i].Time})
			continue
		}
		counts[hour]++
	}

	stats := make([]HourlyStat, 24)
	for hour := range stats {
		stats[hour] = HourlyStat{Hour: hour, Count: counts[hour]}
	}
	return stats, errors.Join(errs...)
}

// DailyCounts groups records by calendar date in ascending date order. The
// result is the canonical history consumed by Forecast.
func DailyCounts(records []IncidentRecord) []DailyCount {
	counts := make(map[string]*DailyCount)
	for i := range records {
		key := records[i].Date.String()
		if dc, ok := counts[key]; ok {
			dc.Count++
			continue
		}
		counts[key] = &DailyCount{Date: records[i].Date, Count: 1}
	}

	series := make([]DailyCount, 0, len(counts))
	for _, dc := range counts {
		series = append(series, *dc)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date.Time)
	})
	return series
}

// DistrictStats counts records per district, most frequent first. Records
// without a district are not counted.
func DistrictStats(records []IncidentRecord) []DistrictStat {
	counts := make(map[string]int)
	for i := range records {
		if records[i].District == "" {
			continue
		}
		counts[records[i].District]++
	}

	stats := make([]DistrictStat, 0, len(counts))
	for district, count := range counts {
		stats = append(stats, DistrictStat{District: district, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].District < stats[j].District
	})
	return stats
}

// SeverityStats counts records per severity in High, Medium, Low order.
// Levels with no records are omitted.
func SeverityStats(records []IncidentRecord) []SeverityStat {
	counts := make(map[Severity]int, 3)
	for i := range records {
		counts[records[i].Severity]++
	}

	stats := make([]SeverityStat, 0, len(counts))
	for _, level := range []Severity{SeverityHigh, SeverityMedium, SeverityLow} {
		if counts[level] > 0 {
			stats = append(stats, SeverityStat{Severity: level, Count: counts[level]})
		}
	}
	return stats
}

// CountOn returns how many records fall on the given day.
func CountOn(records []IncidentRecord, day Date) int {
	n := 0
	for i := range records {
		if records[i].Date.Equal(day.Time) {
			n++
		}
	}
	return n
}

// FilterByRange keeps records dated on or after asOf minus days. A
// non-positive days value keeps everything. The input is not modified.
func FilterByRange(records []IncidentRecord, asOf Date, days int) []IncidentRecord {
	if days <= 0 {
		out := make([]IncidentRecord, len(records))
		copy(out, records)
		return out
	}

	cutoff := asOf.AddDays(-days)
	out := make([]IncidentRecord, 0, len(records))
	for i := range records {
		if !records[i].Date.Before(cutoff.Time) {
			out = append(out, records[i])
		}
	}
	return out
}

// PeakHour returns the first hour with the highest count.
func PeakHour(stats []HourlyStat) (HourlyStat, bool) {
	if len(stats) == 0 {
		return HourlyStat{}, false
	}
	peak := stats[0]
	for _, s := range stats[1:] {
		if s.Count > peak.Count {
			peak = s
		}
	}
	return peak, true
}

// PeakDay returns the first day with the highest count.
func PeakDay(series []DailyCount) (DailyCount, bool) {
	if len(series) == 0 {
		return DailyCount{}, false
	}
	peak := series[0]
	for _, d := range series[1:] {
		if d.Count > peak.Count {
			peak = d
		}
	}
	return peak, true
}
