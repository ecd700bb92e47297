package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIncidentID = "crime_1"
	testAssault    = "Assault"
	testDowntown   = "Downtown"
)

func TestParseRawEvent(t *testing.T) {
	baseDate := time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)

	t.Run("complete record", func(t *testing.T) {
		data := []byte(`{"id":"crime_1","date":"2024-01-17","time":"22:15","category":"Assault","description":"Crime incident 1","latitude":"40.7128","longitude":"-74.0060","district":"Downtown","severity":"High"}`)
		result, err := ParseRawEvent(RawEvent{Value: data, Timestamp: baseDate})

		require.NoError(t, err)
		assert.Equal(t, testIncidentID, result.ID)
		assert.Equal(t, NewDate(2024, time.January, 17), result.Date)
		assert.Equal(t, "22:15", result.Time)
		assert.Equal(t, testAssault, result.Category)
		assert.Equal(t, "Crime incident 1", result.Description)
		assert.Equal(t, 40.7128, result.Latitude)
		assert.Equal(t, -74.0060, result.Longitude)
		assert.Equal(t, testDowntown, result.District)
		assert.Equal(t, SeverityHigh, result.Severity)
	})

	t.Run("empty record gets defaults", func(t *testing.T) {
		result, err := ParseRawEvent(RawEvent{Value: []byte("{}"), Timestamp: baseDate})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(result.ID, "incident-"))
		assert.Equal(t, NewDate(2024, time.March, 5), result.Date)
		assert.Equal(t, DefaultTime, result.Time)
		assert.Equal(t, DefaultCategory, result.Category)
		assert.Equal(t, DefaultDescription, result.Description)
		assert.Equal(t, DefaultLatitude, result.Latitude)
		assert.Equal(t, DefaultLongitude, result.Longitude)
		assert.Empty(t, result.District)
		assert.Equal(t, SeverityMedium, result.Severity)
	})

	t.Run("coordinate aliases", func(t *testing.T) {
		data := []byte(`{"lat":"40.75","lon":"-73.98"}`)
		result, err := ParseRawEvent(RawEvent{Value: data, Timestamp: baseDate})

		require.NoError(t, err)
		assert.Equal(t, 40.75, result.Latitude)
		assert.Equal(t, -73.98, result.Longitude)
	})

	t.Run("unparseable coordinates fall back", func(t *testing.T) {
		data := []byte(`{"latitude":"north","lng":"west"}`)
		result, err := ParseRawEvent(RawEvent{Value: data, Timestamp: baseDate})

		require.NoError(t, err)
		assert.Equal(t, DefaultLatitude, result.Latitude)
		assert.Equal(t, DefaultLongitude, result.Longitude)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		data := []byte(`{"id":"bad-lat","latitude":"95","longitude":"0"}`)
		_, err := ParseRawEvent(RawEvent{Value: data, Timestamp: baseDate})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad-lat")
	})

	t.Run("longitude out of range", func(t *testing.T) {
		data := []byte(`{"latitude":"0","longitude":"-181"}`)
		_, err := ParseRawEvent(RawEvent{Value: data, Timestamp: baseDate})

		require.Error(t, err)
	})

	t.Run("unknown severity", func(t *testing.T) {
		data := []byte(`{"severity":"Critical"}`)
		_, err := ParseRawEvent(RawEvent{Value: data, Timestamp: baseDate})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Critical")
	})

	t.Run("invalid date", func(t *testing.T) {
		data := []byte(`{"date":"yesterday"}`)
		_, err := ParseRawEvent(RawEvent{Value: data, Timestamp: baseDate})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse date")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte("{invalid json")})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse raw event")
	})

	t.Run("deterministic ID", func(t *testing.T) {
		data := []byte(`{"date":"2024-01-17","time":"09:30","category":"Theft","latitude":"40.7","longitude":"-74.0"}`)
		raw := RawEvent{Value: data, Timestamp: baseDate}

		result1, err := ParseRawEvent(raw)
		require.NoError(t, err)
		result2, err := ParseRawEvent(raw)
		require.NoError(t, err)

		assert.Equal(t, result1.ID, result2.ID)
	})

	t.Run("zero timestamp uses clock", func(t *testing.T) {
		SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)))
		t.Cleanup(func() { SetClock(nil) })

		result, err := ParseRawEvent(RawEvent{Value: []byte("{}")})
		require.NoError(t, err)
		assert.Equal(t, NewDate(2024, time.June, 1), result.Date)
	})
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in       string
		expected Severity
		wantErr  bool
	}{
		{"", SeverityMedium, false},
		{"Low", SeverityLow, false},
		{"medium", SeverityMedium, false},
		{" HIGH ", SeverityHigh, false},
		{"extreme", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := NewDate(2024, time.February, 29)

	for _, in := range []string{"2024-02-29", "2024/02/29", "02/29/2024", "2024-02-29T23:10:00Z"} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseDate("29.02.2024")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, time.January, 5)

	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-01-05"`, string(data))

	var back Date
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, d, back)
	assert.Equal(t, NewDate(2024, time.February, 1), d.AddDays(27))
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		hour  int
		valid bool
	}{
		{"colon", "22:15", 22, true},
		{"midnight", "00:00", 0, true},
		{"single digit", "7:05", 7, true},
		{"no colon", "2215", 22, true},
		{"out of range", "24:00", 0, false},
		{"negative", "-1:00", 0, false},
		{"signed zero", "-0:30", 0, false},
		{"plus sign", "+5:00", 0, false},
		{"no colon signed", "+512", 0, false},
		{"letters", "ab:cd", 0, false},
		{"empty", "", 0, false},
		{"three digit hour", "123:00", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, ok := parseHour(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.hour, hour)
			}
		})
	}
}

func TestScoreIncident(t *testing.T) {
	now := time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	rec := IncidentRecord{ID: testIncidentID, Time: "23:00", Category: testAssault, Severity: SeverityHigh}
	scored := ScoreIncident(rec)

	assert.Equal(t, rec, scored.IncidentRecord)
	assert.Equal(t, 1.0, scored.RiskScore)
	assert.Equal(t, now, scored.ProcessedAt)
	assert.Equal(t, "2024-03-05T13:00:00Z", ProcessedAtHeader(scored.ProcessedAt))
}
