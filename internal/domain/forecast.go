package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	// DefaultHorizon is the forecast length in days when none is configured.
	DefaultHorizon = 30
	// MaxHorizon caps the forecast length accepted from configuration and API queries.
	MaxHorizon = 365

	// trendWindow is how many trailing days feed the recent trend.
	trendWindow = 30

	seasonalAmplitude = 0.1
	seasonalFrequency = 0.2
)

// Forecaster projects a daily series forward with a recent-mean trend, a
// bounded sinusoidal seasonal term, and uniform noise in [-1, 1). It is a
// lightweight heuristic, not a statistical model. A Forecaster is not safe
// for concurrent use.
type Forecaster struct {
	rng *rand.Rand
}

// NewForecaster creates a Forecaster drawing noise from rng.
func NewForecaster(rng *rand.Rand) *Forecaster {
	return &Forecaster{rng: rng}
}

// Forecast returns horizon predicted points starting the day after the last
// historical date. The history must be non-empty and strictly increasing.
func (f *Forecaster) Forecast(history []DailyCount, horizon int) ([]DailyCount, error) {
	if horizon < 0 {
		return nil, fmt.Errorf("forecast %d days: %w", horizon, ErrInvalidHorizon)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("forecast %d days: %w", horizon, ErrInsufficientHistory)
	}
	for i := 1; i < len(history); i++ {
		if !history[i].Date.After(history[i-1].Date.Time) {
			return nil, fmt.Errorf("forecast at %s: %w", history[i].Date, ErrUnorderedSeries)
		}
	}

	trend := recentTrend(history)
	last := history[len(history)-1].Date

	out := make([]DailyCount, horizon)
	for i := 1; i <= horizon; i++ {
		seasonal := math.Sin(float64(i)*seasonalFrequency) * seasonalAmplitude * trend
		noise := f.rng.Float64()*2 - 1
		predicted := math.Max(0, math.Round(trend+seasonal+noise))
		out[i-1] = DailyCount{
			Date:      last.AddDays(i),
			Count:     int(predicted),
			Predicted: true,
		}
	}
	return out, nil
}

// recentTrend is the mean of the last min(30, len(history)) counts.
func recentTrend(history []DailyCount) float64 {
	window := history[max(0, len(history)-trendWindow):]
	sum := 0
	for _, d := range window {
		sum += d.Count
	}
	return float64(sum) / float64(len(window))
}

// ForecastSummary compares the historical and predicted daily averages.
type ForecastSummary struct {
	HistoricalAverage  int     `json:"historical_average"`
	ForecastAverage    int     `json:"forecast_average"`
	TrendChangePercent float64 `json:"trend_change_percent"`
}

// SummarizeForecast rounds both averages to whole counts. The trend change is
// zero when either series is empty or the historical average is zero.
func SummarizeForecast(history, forecast []DailyCount) ForecastSummary {
	hist := averageCount(history)
	pred := averageCount(forecast)

	summary := ForecastSummary{HistoricalAverage: hist, ForecastAverage: pred}
	if hist > 0 && len(forecast) > 0 {
		summary.TrendChangePercent = math.Round(float64(pred-hist)/float64(hist)*1000) / 10
	}
	return summary
}

func averageCount(series []DailyCount) int {
	if len(series) == 0 {
		return 0
	}
	total := 0
	for _, d := range series {
		total += d.Count
	}
	return int(math.Round(float64(total) / float64(len(series))))
}
