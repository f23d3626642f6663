// Package contracts builds the candidate contract universe for a strategy run.
//
// The universe is deliberately over-generated: every (expiry, strike) pair on
// the ladder becomes a candidate, and existence/liquidity is discovered
// through the market data gateway rather than assumed. The selector discards
// anything that does not resolve.
package contracts

import (
	"fmt"
	"sort"
	"time"

	"github.com/vol-trader-arslancm/BloombergData/internal/expiry"
)

// Kind identifies the instrument type of a contract.
type Kind string

const (
	// KindFuture is a volatility future contract.
	KindFuture Kind = "future"
	// KindCallOption is a listed call option contract.
	KindCallOption Kind = "call_option"
)

// Valid returns true if the Kind is one of the defined constants.
func (k Kind) Valid() bool {
	switch k {
	case KindFuture, KindCallOption:
		return true
	default:
		return false
	}
}

// Spec fully identifies one candidate contract. Immutable once generated;
// Symbol is a pure function of the remaining fields.
type Spec struct {
	Symbol string      `json:"symbol"`
	Kind   Kind        `json:"kind"`
	Expiry expiry.Date `json:"expiry"`
	Strike float64     `json:"strike,omitempty"` // options only
}

// OptionSymbol formats a VIX call option ticker in the vendor grammar:
// "VIX MM/DD/YY C{strike} Index". Whole-number strikes print without a
// decimal part to match listed tickers.
func OptionSymbol(exp expiry.Date, strike float64) string {
	if strike == float64(int(strike)) {
		return fmt.Sprintf("VIX %s C%d Index", exp.Date.Format("01/02/06"), int(strike))
	}
	return fmt.Sprintf("VIX %s C%.1f Index", exp.Date.Format("01/02/06"), strike)
}

// FutureSymbol formats a VIX future ticker in the vendor calendar grammar:
// "UX{month code}{yy} Index", e.g. "UXQ25 Index" for August 2025.
func FutureSymbol(exp expiry.Date) string {
	return fmt.Sprintf("UX%s Index", exp.CalendarCode())
}

// StrikeLadder combines coarse uniform spacing across [low, high] with the
// given dense points, deduplicated and sorted ascending. Dense points outside
// [low, high] are kept: near-the-money coverage matters more than range
// symmetry. Non-positive strikes are dropped.
func StrikeLadder(low, high, step float64, dense []float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	add := func(s float64) {
		if s > 0 && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if step > 0 {
		for s := low; s <= high; s += step {
			add(s)
		}
	}
	for _, s := range dense {
		add(s)
	}
	sort.Float64s(out)
	return out
}

// OptionUniverse returns one call option Spec per (expiry, strike) pair, in
// expiry-major, strike-minor order.
func OptionUniverse(expiries []expiry.Date, strikes []float64) []Spec {
	out := make([]Spec, 0, len(expiries)*len(strikes))
	for _, exp := range expiries {
		for _, strike := range strikes {
			out = append(out, Spec{
				Symbol: OptionSymbol(exp, strike),
				Kind:   KindCallOption,
				Expiry: exp,
				Strike: strike,
			})
		}
	}
	return out
}

// FutureUniverse returns one future Spec per expiry.
func FutureUniverse(expiries []expiry.Date) []Spec {
	out := make([]Spec, 0, len(expiries))
	for _, exp := range expiries {
		out = append(out, Spec{
			Symbol: FutureSymbol(exp),
			Kind:   KindFuture,
			Expiry: exp,
		})
	}
	return out
}

// FrontMonth returns the future whose expiry is the first one strictly after
// the given date, or false if none remains. Used to pick the hedge contract
// at cycle entry.
func FrontMonth(futures []Spec, after time.Time) (Spec, bool) {
	best := Spec{}
	found := false
	for _, f := range futures {
		if f.Kind != KindFuture || !f.Expiry.Date.After(after) {
			continue
		}
		if !found || f.Expiry.Date.Before(best.Expiry.Date) {
			best = f
			found = true
		}
	}
	return best, found
}
