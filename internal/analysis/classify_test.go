package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) *time.Time {
	t := testNow.Add(-time.Duration(days) * 24 * time.Hour)
	return &t
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"z suffix", "2025-06-10T08:30:00.000Z", true},
		{"z suffix no millis", "2025-06-10T08:30:00Z", true},
		{"numeric offset", "2025-06-10T08:30:00+00:00", true},
		{"no zone", "2025-06-10T08:30:00", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"null literal", "null", false},
		{"garbage", "not-a-date", false},
		{"date only", "2025-06-10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := ParseTimestamp(tt.input)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, time.UTC, parsed.Location())
				assert.Equal(t, 2025, parsed.Year())
			}
		})
	}
}

func TestParseTimestamp_NormalizesOffset(t *testing.T) {
	parsed, ok := ParseTimestamp("2025-06-10T10:30:00+02:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC), parsed)
}

func TestClassify_Thresholds(t *testing.T) {
	thresholds := DefaultThresholds()
	colors := DefaultColors()

	tests := []struct {
		days int
		want Status
	}{
		{0, StatusActive},
		{7, StatusActive},
		{8, StatusAtRisk},
		{30, StatusAtRisk},
		{31, StatusInactive},
		{90, StatusInactive},
		{91, StatusChurned},
		{400, StatusChurned},
	}

	for _, tt := range tests {
		result := Classify(daysAgo(tt.days), testNow, thresholds, colors)
		assert.Equal(t, tt.want, result.Status, "days=%d", tt.days)
		assert.Equal(t, tt.days, result.DaysInactive, "days=%d", tt.days)
		assert.Equal(t, colors[tt.want], result.Color, "days=%d", tt.days)
	}
}

func TestClassify_AbsentTimestamp(t *testing.T) {
	result := Classify(nil, testNow, DefaultThresholds(), DefaultColors())

	assert.Equal(t, StatusUnknown, result.Status)
	assert.Equal(t, -1, result.DaysInactive)
	assert.Equal(t, DefaultColors()[StatusUnknown], result.Color)
}

func TestClassify_FutureTimestampIsActive(t *testing.T) {
	// Clock skew: a last-changed instant ahead of now yields negative
	// days and classifies as active, not as an error.
	future := testNow.Add(36 * time.Hour)
	result := Classify(&future, testNow, DefaultThresholds(), DefaultColors())

	assert.Equal(t, StatusActive, result.Status)
	assert.Negative(t, result.DaysInactive)
}

func TestClassify_PartialDayTruncates(t *testing.T) {
	// 7 days 23 hours ago truncates to 7 whole days: still active.
	last := testNow.Add(-(7*24 + 23) * time.Hour)
	result := Classify(&last, testNow, DefaultThresholds(), DefaultColors())

	assert.Equal(t, StatusActive, result.Status)
	assert.Equal(t, 7, result.DaysInactive)
}

func TestClassify_Monotonic(t *testing.T) {
	thresholds := DefaultThresholds()
	colors := DefaultColors()
	order := map[Status]int{
		StatusActive:   0,
		StatusAtRisk:   1,
		StatusInactive: 2,
		StatusChurned:  3,
	}

	prev := -1
	for days := 0; days <= 400; days++ {
		result := Classify(daysAgo(days), testNow, thresholds, colors)
		rank, ok := order[result.Status]
		require.True(t, ok, "unexpected status %s at %d days", result.Status, days)
		assert.GreaterOrEqual(t, rank, prev, "status moved backward at %d days", days)
		prev = rank
	}
}

func TestClassify_UnconfiguredColorFallsBack(t *testing.T) {
	result := Classify(daysAgo(2), testNow, DefaultThresholds(), ColorMap{})
	assert.Equal(t, "#95a5a6", result.Color)
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.NoError(t, Thresholds{ActiveDays: 0, AtRiskDays: 1, InactiveDays: 2}.Validate())

	assert.Error(t, Thresholds{ActiveDays: -1, AtRiskDays: 30, InactiveDays: 90}.Validate())
	assert.Error(t, Thresholds{ActiveDays: 30, AtRiskDays: 30, InactiveDays: 90}.Validate())
	assert.Error(t, Thresholds{ActiveDays: 7, AtRiskDays: 90, InactiveDays: 30}.Validate())
	assert.Error(t, Thresholds{}.Validate())
}
