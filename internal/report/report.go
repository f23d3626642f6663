// Package report summarizes a run: per-expiry selection outcomes and
// aggregate P&L statistics over the tracked holding windows.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/vol-trader-arslancm/BloombergData/internal/strategy"
	"github.com/vol-trader-arslancm/BloombergData/internal/tracker"
)

// ErrNoSummary is returned by Load when no summary has been saved yet.
var ErrNoSummary = errors.New("no run summary saved")

// ExpiryLine is one expiry's outcome in the summary.
type ExpiryLine struct {
	Expiry string `json:"expiry"`
	Found  bool   `json:"found"`
	Reason string `json:"reason,omitempty"`
}

// PnLStats are aggregate statistics over the portfolio's daily P&L series
// (all cycles summed per date).
type PnLStats struct {
	Days        int     `json:"days"`
	TotalPnL    float64 `json:"total_pnl"`
	MeanDaily   float64 `json:"mean_daily_pnl"`
	StdDevDaily float64 `json:"stddev_daily_pnl"`
	MaxDrawdown float64 `json:"max_drawdown"`
	WinDayRatio float64 `json:"win_day_ratio"`
}

// Summary is the durable artifact of one run: what was selected, what was
// skipped, and how the held positions marked. RunID and GeneratedAt are the
// only wall-clock-dependent fields.
type Summary struct {
	RunID         string       `json:"run_id"`
	GeneratedAt   time.Time    `json:"generated_at"`
	CyclesFound   int          `json:"cycles_found"`
	CyclesSkipped int          `json:"cycles_skipped"`
	Expiries      []ExpiryLine `json:"expiries"`
	ManifestSize  int          `json:"manifest_entries"`
	Stats         PnLStats     `json:"pnl_stats"`
}

// Build assembles a Summary from a selection result and the tracked daily
// aggregate series.
func Build(result *strategy.Result, daily []tracker.CycleDailyPnL) (*Summary, error) {
	s := &Summary{
		RunID:         result.RunID,
		GeneratedAt:   result.GeneratedAt,
		CyclesFound:   result.Found(),
		CyclesSkipped: result.Skipped(),
		ManifestSize:  len(result.Entries),
	}
	for _, o := range result.Outcomes {
		s.Expiries = append(s.Expiries, ExpiryLine{
			Expiry: o.Expiry.String(),
			Found:  o.Found,
			Reason: o.Reason,
		})
	}

	pnlStats, err := computeStats(daily)
	if err != nil {
		return nil, err
	}
	s.Stats = pnlStats
	return s, nil
}

// computeStats folds per-cycle rows into one portfolio series per date, then
// derives the summary statistics.
func computeStats(daily []tracker.CycleDailyPnL) (PnLStats, error) {
	if len(daily) == 0 {
		return PnLStats{}, nil
	}

	byDate := make(map[time.Time]float64)
	var order []time.Time
	for _, row := range daily {
		if _, seen := byDate[row.Date]; !seen {
			order = append(order, row.Date)
		}
		byDate[row.Date] += row.TotalPnL
	}
	// AggregateDaily emits dates ascending per cycle; re-derive a global
	// ascending order.
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	series := make([]float64, len(order))
	wins := 0
	for i, d := range order {
		series[i] = byDate[d]
		if series[i] > 0 {
			wins++
		}
	}

	total, err := stats.Sum(series)
	if err != nil {
		return PnLStats{}, fmt.Errorf("summing pnl series: %w", err)
	}
	mean, err := stats.Mean(series)
	if err != nil {
		return PnLStats{}, fmt.Errorf("averaging pnl series: %w", err)
	}
	stddev, err := stats.StandardDeviation(series)
	if err != nil {
		return PnLStats{}, fmt.Errorf("stddev of pnl series: %w", err)
	}

	return PnLStats{
		Days:        len(series),
		TotalPnL:    total,
		MeanDaily:   mean,
		StdDevDaily: stddev,
		MaxDrawdown: maxDrawdown(series),
		WinDayRatio: float64(wins) / float64(len(series)),
	}, nil
}

// maxDrawdown is the most negative peak-to-trough move of the cumulative
// P&L curve, reported as a non-positive number.
func maxDrawdown(series []float64) float64 {
	var cum, peak, worst float64
	for _, v := range series {
		cum += v
		if cum > peak {
			peak = cum
		}
		if dd := cum - peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// Save writes the summary as indented JSON via a temp file and atomic rename.
func (s *Summary) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating summary dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing summary: %w", err)
	}
	return nil
}

// Load reads a previously saved summary. Returns ErrNoSummary if none exists.
func Load(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSummary
		}
		return nil, fmt.Errorf("reading summary: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return &s, nil
}
