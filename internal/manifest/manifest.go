// Package manifest converts accepted position cycles into durable, dated,
// signed holdings and persists them across runs.
package manifest

import (
	"fmt"
	"sort"
	"time"

	"github.com/vol-trader-arslancm/BloombergData/internal/contracts"
	"github.com/vol-trader-arslancm/BloombergData/internal/marketdata"
	"github.com/vol-trader-arslancm/BloombergData/internal/selector"
)

// dateLayout is the on-disk date format for manifest fields.
const dateLayout = "2006-01-02"

// Date is a calendar day that round-trips through CSV as YYYY-MM-DD.
type Date struct {
	time.Time
}

// MarshalCSV implements gocsv marshaling.
func (d Date) MarshalCSV() (string, error) {
	return d.Format(dateLayout), nil
}

// UnmarshalCSV implements gocsv unmarshaling.
func (d *Date) UnmarshalCSV(s string) error {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing manifest date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Day normalizes t to midnight UTC.
func Day(t time.Time) Date {
	y, m, day := t.UTC().Date()
	return Date{time.Date(y, m, day, 0, 0, 0, 0, time.UTC)}
}

// Entry is one held contract of a position cycle. Immutable once built; the
// signed Quantity comes verbatim from the leg configuration and is the only
// input to P&L sign math.
type Entry struct {
	Symbol      string         `csv:"symbol" json:"symbol"`
	Kind        contracts.Kind `csv:"kind" json:"kind"`
	TargetDelta float64        `csv:"target_delta" json:"target_delta"`
	Role        selector.Role  `csv:"position_type" json:"position_type"`
	Quantity    int            `csv:"quantity" json:"quantity"`
	EntryDate   Date           `csv:"entry_date" json:"entry_date"`
	ExpiryDate  Date           `csv:"expiry_date" json:"expiry_date"`
	RollDate    Date           `csv:"roll_date" json:"roll_date"`
	Strike      float64        `csv:"strike" json:"strike"`
	EntryDelta  float64        `csv:"entry_delta" json:"entry_delta"`
	EntryPrice  float64        `csv:"entry_price" json:"entry_price"`
}

// Validate enforces the builder's contract: a persisted entry always carries
// a positive entry price, a known entry delta, and a holding window that
// starts no later than it ends.
func (e Entry) Validate() error {
	if e.Symbol == "" {
		return fmt.Errorf("manifest entry: empty symbol")
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("manifest entry %s: invalid kind %q", e.Symbol, e.Kind)
	}
	if e.Quantity == 0 {
		return fmt.Errorf("manifest entry %s: zero quantity", e.Symbol)
	}
	if e.EntryPrice <= 0 {
		return fmt.Errorf("manifest entry %s: entry price %v must be positive", e.Symbol, e.EntryPrice)
	}
	if e.EntryDelta <= 0 {
		return fmt.Errorf("manifest entry %s: entry delta %v must be positive", e.Symbol, e.EntryDelta)
	}
	if e.EntryDate.After(e.RollDate.Time) {
		return fmt.Errorf("manifest entry %s: entry date %s after roll date %s",
			e.Symbol, e.EntryDate.Format(dateLayout), e.RollDate.Format(dateLayout))
	}
	return nil
}

// Build converts accepted cycles into manifest entries, one per leg, with
// roll_date = expiry_date - 1 calendar day. The output order is
// deterministic (expiry, then descending target delta, then symbol), so
// rebuilding from the same cycles yields identical entries.
func Build(cycles []selector.PositionCycle) ([]Entry, error) {
	var out []Entry
	for _, cycle := range cycles {
		for _, pos := range cycle.Legs {
			e := Entry{
				Symbol:      pos.Contract.Symbol,
				Kind:        pos.Contract.Kind,
				TargetDelta: pos.Leg.TargetDelta,
				Role:        pos.Leg.Role,
				Quantity:    pos.Leg.Quantity,
				EntryDate:   Day(cycle.EntryDate),
				ExpiryDate:  Day(cycle.Expiry.Date),
				RollDate:    Day(cycle.Expiry.RollDate()),
				Strike:      pos.Contract.Strike,
				EntryDelta:  pos.ActualDelta,
				EntryPrice:  pos.EntryPrice,
			}
			if err := e.Validate(); err != nil {
				// Eligibility filtering upstream should make this unreachable.
				return nil, fmt.Errorf("building manifest: %w", err)
			}
			out = append(out, e)
		}
	}
	SortEntries(out)
	return out, nil
}

// BuildHedge materializes the futures hedge leg of one cycle: the front-month
// future at the cycle's entry date, with the externally configured signed
// quantity. The future's delta to the underlying is 1 per contract.
func BuildHedge(cycle selector.PositionCycle, future contracts.Spec, snap marketdata.QuoteSnapshot, quantity int) (Entry, error) {
	price := snap.MidOrLast()
	if !price.Valid || price.Value <= 0 {
		return Entry{}, fmt.Errorf("hedge %s: no usable entry price", future.Symbol)
	}
	role := selector.RoleLong
	if quantity < 0 {
		role = selector.RoleShort
	}
	e := Entry{
		Symbol:      future.Symbol,
		Kind:        contracts.KindFuture,
		TargetDelta: 1,
		Role:        role,
		Quantity:    quantity,
		EntryDate:   Day(cycle.EntryDate),
		ExpiryDate:  Day(cycle.Expiry.Date),
		RollDate:    Day(cycle.Expiry.RollDate()),
		EntryDelta:  1,
		EntryPrice:  price.Value,
	}
	if err := e.Validate(); err != nil {
		return Entry{}, fmt.Errorf("building hedge entry: %w", err)
	}
	return e, nil
}

// SortEntries orders entries deterministically: expiry ascending, target
// delta descending, then symbol. Build applies this ordering itself; callers
// that append extra entries (the hedge leg) re-sort with it.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate.Time) {
			return a.ExpiryDate.Before(b.ExpiryDate.Time)
		}
		if a.TargetDelta != b.TargetDelta {
			return a.TargetDelta > b.TargetDelta
		}
		return a.Symbol < b.Symbol
	})
}
