// Package tracker replays daily quotes across each manifest holding window
// into per-day, per-leg, and aggregate P&L.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vol-trader-arslancm/BloombergData/internal/contracts"
	"github.com/vol-trader-arslancm/BloombergData/internal/manifest"
	"github.com/vol-trader-arslancm/BloombergData/internal/marketdata"
)

// DefaultConcurrency bounds how many symbols are tracked in parallel.
const DefaultConcurrency = 4

// Multipliers maps instrument kind to the dollar value of one point of price
// movement on one contract. Supplied by configuration, never per symbol.
type Multipliers struct {
	Option float64 `yaml:"option"`
	Future float64 `yaml:"future"`
}

// For returns the multiplier for the given instrument kind.
func (m Multipliers) For(kind contracts.Kind) float64 {
	if kind == contracts.KindFuture {
		return m.Future
	}
	return m.Option
}

// Validate checks that both multipliers are positive.
func (m Multipliers) Validate() error {
	if m.Option <= 0 {
		return fmt.Errorf("option multiplier must be > 0, got %v", m.Option)
	}
	if m.Future <= 0 {
		return fmt.Errorf("future multiplier must be > 0, got %v", m.Future)
	}
	return nil
}

// DailyRecord is one manifest entry crossed with one observed day inside its
// holding window. Days without a usable quote are simply absent: no
// forward-fill, no zero rows.
type DailyRecord struct {
	Symbol      string            `json:"symbol"`
	Kind        contracts.Kind    `json:"kind"`
	ExpiryDate  time.Time         `json:"expiry_date"`
	Date        time.Time         `json:"date"`
	Quantity    int               `json:"quantity"`
	Price       float64           `json:"price"`
	PriceChange float64           `json:"price_change"`
	DailyPnL    float64           `json:"daily_pnl"`
	Delta       marketdata.Float `json:"-"`
	DeltaChange marketdata.Float `json:"-"`
}

// Tracker drives the gateway across manifest holding windows.
type Tracker struct {
	gateway     marketdata.Gateway
	multipliers Multipliers
	concurrency int
	logger      *logrus.Logger
}

// New creates a Tracker. A nil logger falls back to the logrus standard
// logger; a non-positive concurrency falls back to DefaultConcurrency.
func New(gateway marketdata.Gateway, multipliers Multipliers, concurrency int, logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Tracker{
		gateway:     gateway,
		multipliers: multipliers,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Track fetches the daily series for every manifest entry and derives one
// DailyRecord per (symbol, date) observed inside [entry_date, roll_date].
// Entries are independent and are fetched concurrently; a gateway failure on
// any symbol aborts the batch and propagates to the caller, who owns retry
// policy. The manifest is assumed valid (see manifest.Entry.Validate); entry
// prices are not re-checked here.
func (t *Tracker) Track(ctx context.Context, entries []manifest.Entry) ([]DailyRecord, error) {
	var (
		mu      sync.Mutex
		records []DailyRecord
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			recs, err := t.trackEntry(ctx, entry)
			if err != nil {
				return err
			}
			mu.Lock()
			records = append(records, recs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Symbol != records[j].Symbol {
			return records[i].Symbol < records[j].Symbol
		}
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

func (t *Tracker) trackEntry(ctx context.Context, entry manifest.Entry) ([]DailyRecord, error) {
	fields := marketdata.OptionFields
	if entry.Kind == contracts.KindFuture {
		fields = marketdata.FutureFields
	}

	series, err := t.gateway.BatchHistoricalSeries(ctx, entry.Symbol, fields, entry.EntryDate.Time, entry.RollDate.Time)
	if err != nil {
		return nil, fmt.Errorf("historical series for %s: %w", entry.Symbol, err)
	}

	multiplier := t.multipliers.For(entry.Kind)
	var out []DailyRecord
	for _, snap := range series {
		// The gateway is asked for exactly the holding window, but a sloppy
		// implementation must not widen it.
		if snap.Date.Before(entry.EntryDate.Time) || snap.Date.After(entry.RollDate.Time) {
			continue
		}
		price := snap.MidOrLast()
		if !price.Valid {
			// DataUnavailable: omit the day entirely.
			continue
		}

		rec := DailyRecord{
			Symbol:      entry.Symbol,
			Kind:        entry.Kind,
			ExpiryDate:  entry.ExpiryDate.Time,
			Date:        snap.Date,
			Quantity:    entry.Quantity,
			Price:       price.Value,
			PriceChange: price.Value - entry.EntryPrice,
			Delta:       snap.Delta,
		}
		rec.DailyPnL = rec.PriceChange * float64(entry.Quantity) * multiplier
		if snap.Delta.Valid {
			rec.DeltaChange = marketdata.Known(snap.Delta.Value - entry.EntryDelta)
		}
		out = append(out, rec)
	}

	t.logger.WithFields(logrus.Fields{
		"symbol": entry.Symbol,
		"days":   len(out),
	}).Debug("tracked holding window")
	return out, nil
}

// CycleDailyPnL is one position cycle's aggregate P&L on one date: option
// legs plus the futures hedge, keyed by the cycle's expiry.
type CycleDailyPnL struct {
	ExpiryDate time.Time `json:"expiry_date"`
	Date       time.Time `json:"date"`
	TotalPnL   float64   `json:"total_pnl"`
	Legs       int       `json:"legs"`
}

// AggregateDaily sums daily P&L across the legs of each cycle, per date,
// ordered by (expiry, date). Dates where a leg had no quote contribute only
// the legs that were observed.
func AggregateDaily(records []DailyRecord) []CycleDailyPnL {
	type key struct {
		expiry time.Time
		date   time.Time
	}
	totals := make(map[key]*CycleDailyPnL)
	for _, rec := range records {
		k := key{rec.ExpiryDate, rec.Date}
		agg, ok := totals[k]
		if !ok {
			agg = &CycleDailyPnL{ExpiryDate: rec.ExpiryDate, Date: rec.Date}
			totals[k] = agg
		}
		agg.TotalPnL += rec.DailyPnL
		agg.Legs++
	}

	out := make([]CycleDailyPnL, 0, len(totals))
	for _, agg := range totals {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
