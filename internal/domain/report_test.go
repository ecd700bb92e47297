package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReportInput() ReportInput {
	day := NewDate(2024, time.March, 10)
	return ReportInput{
		RangeDays:      30,
		AsOf:           day,
		Total:          90,
		TodayCount:     4,
		MalformedTimes: 1,
		Categories: []CategoryStat{
			{Category: "Theft", Count: 50, Percentage: 56},
			{Category: testAssault, Count: 40, Percentage: 44},
		},
		Hourly: []HourlyStat{{Hour: 0, Count: 10}, {Hour: 1, Count: 30}, {Hour: 2, Count: 30}},
		Daily: []DailyCount{
			{Date: day.AddDays(-2), Count: 20},
			{Date: day.AddDays(-1), Count: 60},
			{Date: day, Count: 10},
		},
		Districts:  []DistrictStat{{District: testDowntown, Count: 70}, {District: "Harbor", Count: 20}},
		Severities: []SeverityStat{{Severity: SeverityHigh, Count: 15}, {Severity: SeverityLow, Count: 75}},
		Clusters: []Cluster{
			{ID: 0, Centroid: Centroid{Lat: 40.75, Lng: -73.98}, Members: make([]IncidentRecord, 60), Severity: SeverityHigh},
			{ID: 1, Centroid: Centroid{Lat: 40.70, Lng: -74.01}, Members: make([]IncidentRecord, 30), Severity: SeverityMedium},
		},
		Forecast: []DailyCount{
			{Date: day.AddDays(1), Count: 33, Predicted: true},
			{Date: day.AddDays(2), Count: 27, Predicted: true},
		},
	}
}

func TestAssembleReport(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	in := sampleReportInput()
	r := AssembleReport(in)

	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.Equal(t, now, r.GeneratedAt)
	assert.Equal(t, "Last 30 days", r.DateRange)
	assert.Equal(t, in.AsOf, r.AsOf)
	assert.Equal(t, 90, r.TotalIncidents)
	assert.Equal(t, in.Categories, r.CategoryBreakdown)
	assert.Equal(t, 2, r.ClusterCount)

	require.Len(t, r.Hotspots, 2)
	assert.Equal(t, HotspotSummary{ID: 0, Centroid: Centroid{Lat: 40.75, Lng: -73.98}, Count: 60, Share: 66.7, Severity: SeverityHigh}, r.Hotspots[0])
	assert.InDelta(t, 33.3, r.Hotspots[1].Share, 1e-9)

	assert.Equal(t, 3, r.TimeSeries.Days)
	assert.Equal(t, 30, r.TimeSeries.DailyAverage)
	require.NotNil(t, r.TimeSeries.PeakDay)
	assert.Equal(t, 60, r.TimeSeries.PeakDay.Count)

	assert.Equal(t, ReportSummary{
		TopCategory:           "Theft",
		TopDistrict:           testDowntown,
		HighSeverityClusters:  1,
		HighSeverityIncidents: 15,
		PeakHour:              1,
		PeakDayCount:          60,
		TodayCount:            4,
		MalformedTimes:        1,
	}, r.Summary)

	assert.Equal(t, ForecastSummary{HistoricalAverage: 30, ForecastAverage: 30, TrendChangePercent: 0}, r.ForecastSummary)
	assert.Nil(t, r.Classifier)
}

func TestAssembleReport_UniqueIDs(t *testing.T) {
	in := sampleReportInput()
	assert.NotEqual(t, AssembleReport(in).ID, AssembleReport(in).ID)
}

func TestAssembleReport_EmptyInput(t *testing.T) {
	r := AssembleReport(ReportInput{})

	assert.Equal(t, "All time", r.DateRange)
	assert.Zero(t, r.TotalIncidents)
	assert.Empty(t, r.Hotspots)
	assert.Nil(t, r.TimeSeries.PeakDay)
	assert.Zero(t, r.TimeSeries.DailyAverage)
	assert.Empty(t, r.Summary.TopCategory)
}

func TestAssembleReport_JSON(t *testing.T) {
	in := sampleReportInput()
	in.Classifier = &ClassifierReport{Accuracy: 0.81, Precision: 0.8, Recall: 0.77, F1Score: 0.78}

	data, err := json.Marshal(AssembleReport(in))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-03-10", doc["as_of"])
	assert.EqualValues(t, 2, doc["clusters"])
	assert.Contains(t, doc, "forecast_summary")
	assert.Contains(t, doc, "time_series_summary")

	classifier, ok := doc["classifier"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 0.78, classifier["f1_score"])

	forecast, ok := doc["forecast"].([]any)
	require.True(t, ok)
	first := forecast[0].(map[string]any)
	assert.Equal(t, true, first["predicted"])
}

func TestRangeLabel(t *testing.T) {
	assert.Equal(t, "All time", RangeLabel(0))
	assert.Equal(t, "All time", RangeLabel(-5))
	assert.Equal(t, "Last 7 days", RangeLabel(7))
}
