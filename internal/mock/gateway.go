// Package mock provides a synthetic market data gateway for paper mode and
// tests. Prices and Greeks follow a crude exponential-decay moneyness model;
// they are plausible, not accurate.
package mock

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/vol-trader-arslancm/BloombergData/internal/contracts"
	"github.com/vol-trader-arslancm/BloombergData/internal/marketdata"
)

// secureFloat64 generates a cryptographically secure random float64 between 0 and 1.
func secureFloat64() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<53))
	if err != nil {
		// Fallback to a reasonable default if crypto/rand fails
		return 0.5
	}
	return float64(n.Int64()) / (1 << 53)
}

// secureInt63n generates a cryptographically secure random int64 between 0 and n-1.
func secureInt63n(n int64) int64 {
	r, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		// Fallback to a reasonable default if crypto/rand fails
		return n / 2
	}
	return r.Int64()
}

// Gateway is a synthetic marketdata.Gateway over a randomly drifting
// volatility spot.
type Gateway struct {
	mu   sync.Mutex
	spot float64
	now  func() time.Time
}

// Ensure Gateway implements the gateway interface at compile time.
var _ marketdata.Gateway = (*Gateway)(nil)

// NewGateway creates a synthetic gateway with the spot started in the typical
// VIX range.
func NewGateway() *Gateway {
	return &Gateway{
		spot: 15.0 + secureFloat64()*8, // spot between 15 and 23
		now:  time.Now,
	}
}

// NewGatewayAt pins the clock, for deterministic snapshot dates in tests.
func NewGatewayAt(now time.Time) *Gateway {
	g := NewGateway()
	g.now = func() time.Time { return now }
	return g
}

// callDelta approximates a call's delta from moneyness: 0.5 at the money,
// decaying toward 0 above the spot and toward 1 below it.
func callDelta(spot, strike float64) float64 {
	decay := math.Exp(-0.15 * math.Abs(strike-spot))
	if strike >= spot {
		return 0.5 * decay
	}
	return 1 - 0.5*decay
}

func (g *Gateway) optionSnapshot(symbol string, spot float64, expiryDate time.Time, strike float64, asOf time.Time) marketdata.QuoteSnapshot {
	delta := callDelta(spot, strike)

	years := math.Max(expiryDate.Sub(asOf).Hours()/24/365, 1.0/365)
	intrinsic := math.Max(0, spot-strike)
	timeValue := spot * 0.8 * math.Sqrt(years) * math.Exp(-0.10*math.Abs(strike-spot))
	mid := math.Max(0.05, intrinsic+timeValue)
	spread := 0.05 + mid*0.02

	return marketdata.QuoteSnapshot{
		Symbol:       symbol,
		Date:         day(asOf),
		Last:         marketdata.Known(mid),
		Bid:          marketdata.Known(math.Max(0.01, mid-spread/2)),
		Ask:          marketdata.Known(mid + spread/2),
		Volume:       marketdata.Known(float64(1 + secureInt63n(10000))),
		OpenInterest: marketdata.Known(float64(secureInt63n(50000))),
		Delta:        marketdata.Known(delta),
		Gamma:        marketdata.Known(0.02 * math.Exp(-0.1*math.Abs(strike-spot))),
		Theta:        marketdata.Known(-0.05 * timeValue),
		Vega:         marketdata.Known(0.10 * timeValue),
		ImpliedVol:   marketdata.Known(0.7 + secureFloat64()*0.4),
	}
}

func (g *Gateway) futureSnapshot(symbol string, spot float64, asOf time.Time) marketdata.QuoteSnapshot {
	// Small contango over spot.
	price := spot + 0.5 + secureFloat64()
	return marketdata.QuoteSnapshot{
		Symbol:       symbol,
		Date:         day(asOf),
		Last:         marketdata.Known(price),
		Settle:       marketdata.Known(price),
		Volume:       marketdata.Known(float64(1 + secureInt63n(100000))),
		OpenInterest: marketdata.Known(float64(secureInt63n(200000))),
	}
}

// BatchReferenceSnapshot synthesizes a current snapshot per symbol. Symbols
// that do not parse as a VIX option or UX future report NotFound, mirroring
// how a vendor answers for unlisted contracts.
func (g *Gateway) BatchReferenceSnapshot(ctx context.Context, symbols []string, fields []marketdata.Field) (map[string]marketdata.SnapshotResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.spot += (secureFloat64() - 0.5) * 0.6
	g.spot = math.Max(9, math.Min(80, g.spot))
	spot := g.spot
	asOf := g.now()
	g.mu.Unlock()

	out := make(map[string]marketdata.SnapshotResult, len(symbols))
	for _, symbol := range symbols {
		if contracts.IsFutureSymbol(symbol) {
			out[symbol] = marketdata.SnapshotResult{Snapshot: g.futureSnapshot(symbol, spot, asOf)}
			continue
		}
		expiryDate, strike, err := contracts.ParseOptionSymbol(symbol)
		if err != nil || expiryDate.Before(day(asOf)) {
			out[symbol] = marketdata.SnapshotResult{NotFound: true}
			continue
		}
		out[symbol] = marketdata.SnapshotResult{Snapshot: g.optionSnapshot(symbol, spot, expiryDate, strike, asOf)}
	}
	return out, nil
}

// BatchHistoricalSeries synthesizes a weekday series by random walk starting
// from the current spot.
func (g *Gateway) BatchHistoricalSeries(ctx context.Context, symbol string, fields []marketdata.Field, start, end time.Time) ([]marketdata.QuoteSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	spot := g.spot
	g.mu.Unlock()

	isFuture := contracts.IsFutureSymbol(symbol)
	var expiryDate time.Time
	var strike float64
	if !isFuture {
		var err error
		expiryDate, strike, err = contracts.ParseOptionSymbol(symbol)
		if err != nil {
			// Unlisted symbol: no data, not an error.
			return nil, nil
		}
	}

	var out []marketdata.QuoteSnapshot
	for d := day(start); !d.After(day(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		spot += (secureFloat64() - 0.5) * 0.8
		spot = math.Max(9, math.Min(80, spot))

		if isFuture {
			out = append(out, g.futureSnapshot(symbol, spot, d))
		} else {
			out = append(out, g.optionSnapshot(symbol, spot, expiryDate, strike, d))
		}
	}
	return out, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
