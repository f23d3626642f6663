package report

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vol-trader-arslancm/BloombergData/internal/expiry"
	"github.com/vol-trader-arslancm/BloombergData/internal/strategy"
	"github.com/vol-trader-arslancm/BloombergData/internal/tracker"
)

func day(d int) time.Time {
	return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult() *strategy.Result {
	aug := expiry.Date{Date: day(20), Year: 2025, Month: 8}
	sep := expiry.Date{Date: time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC), Year: 2025, Month: 9}
	return &strategy.Result{
		RunID:       "run-1",
		GeneratedAt: time.Date(2025, 7, 21, 12, 0, 0, 0, time.UTC),
		Outcomes: []strategy.ExpiryOutcome{
			{Expiry: aug, Found: true},
			{Expiry: sep, Reason: "expiry 2025-09-17: unresolved leg(s) 50Δ, 10Δ"},
		},
	}
}

func TestBuildSummary(t *testing.T) {
	daily := []tracker.CycleDailyPnL{
		{ExpiryDate: day(20), Date: day(12), TotalPnL: 100},
		{ExpiryDate: day(20), Date: day(13), TotalPnL: -250},
		{ExpiryDate: day(20), Date: day(14), TotalPnL: 50},
	}

	s, err := Build(sampleResult(), daily)
	require.NoError(t, err)

	assert.Equal(t, 1, s.CyclesFound)
	assert.Equal(t, 1, s.CyclesSkipped)
	require.Len(t, s.Expiries, 2)
	assert.True(t, s.Expiries[0].Found)
	assert.NotEmpty(t, s.Expiries[1].Reason)

	assert.Equal(t, 3, s.Stats.Days)
	assert.InDelta(t, -100, s.Stats.TotalPnL, 1e-9)
	assert.InDelta(t, -100.0/3, s.Stats.MeanDaily, 1e-9)
	// Cumulative curve: 100, -150, -100; peak 100, trough -150.
	assert.InDelta(t, -250, s.Stats.MaxDrawdown, 1e-9)
	assert.InDelta(t, 2.0/3, s.Stats.WinDayRatio, 1e-9)
}

func TestBuildSummarySumsCyclesPerDate(t *testing.T) {
	daily := []tracker.CycleDailyPnL{
		{ExpiryDate: day(20), Date: day(12), TotalPnL: 100},
		{ExpiryDate: time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC), Date: day(12), TotalPnL: -40},
	}

	s, err := Build(sampleResult(), daily)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Stats.Days)
	assert.InDelta(t, 60, s.Stats.TotalPnL, 1e-9)
}

func TestBuildSummaryEmptySeries(t *testing.T) {
	s, err := Build(sampleResult(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Stats.Days)
	assert.Zero(t, s.Stats.TotalPnL)
	assert.False(t, math.IsNaN(s.Stats.WinDayRatio))
}

func TestSummarySaveLoadRoundTrip(t *testing.T) {
	daily := []tracker.CycleDailyPnL{
		{ExpiryDate: day(20), Date: day(12), TotalPnL: 100},
	}
	s, err := Build(sampleResult(), daily)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "run_summary.json")

	_, err = Load(path)
	require.True(t, errors.Is(err, ErrNoSummary), "got %v", err)

	require.NoError(t, s.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
	}{
		{"monotone gains", []float64{10, 20, 30}, 0},
		{"single drop", []float64{100, -250, 50}, -250},
		{"drop before any gain", []float64{-50, -50}, -100},
		{"recovery does not erase drawdown", []float64{100, -200, 400}, -200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, maxDrawdown(tt.series), 1e-9)
		})
	}
}
