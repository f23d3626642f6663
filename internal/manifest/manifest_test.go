package manifest

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vol-trader-arslancm/BloombergData/internal/contracts"
	"github.com/vol-trader-arslancm/BloombergData/internal/expiry"
	"github.com/vol-trader-arslancm/BloombergData/internal/marketdata"
	"github.com/vol-trader-arslancm/BloombergData/internal/selector"
)

func augustCycle() selector.PositionCycle {
	exp := expiry.Date{
		Date:  time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC),
		Year:  2025,
		Month: 8,
	}
	entryDate := time.Date(2025, 7, 21, 0, 0, 0, 0, time.UTC)

	leg := func(strike, targetDelta, actualDelta, price float64, qty int, role selector.Role) selector.SelectedPosition {
		sym := contracts.OptionSymbol(exp, strike)
		return selector.SelectedPosition{
			Contract: contracts.Spec{
				Symbol: sym,
				Kind:   contracts.KindCallOption,
				Expiry: exp,
				Strike: strike,
			},
			Entry: marketdata.QuoteSnapshot{
				Symbol: sym,
				Date:   entryDate,
				Delta:  marketdata.Known(actualDelta),
				Mid:    marketdata.Known(price),
				Volume: marketdata.Known(120),
			},
			Leg:         selector.TargetLeg{TargetDelta: targetDelta, Quantity: qty, Role: role},
			ActualDelta: actualDelta,
			EntryPrice:  price,
		}
	}

	return selector.PositionCycle{
		Expiry:    exp,
		EntryDate: entryDate,
		Legs: []selector.SelectedPosition{
			leg(20, 0.50, 0.48, 2.10, -1, selector.RoleShort),
			leg(25, 0.10, 0.11, 0.85, 2, selector.RoleLong),
		},
	}
}

func TestBuildCarriesSignedQuantityAndRollDate(t *testing.T) {
	entries, err := Build([]selector.PositionCycle{augustCycle()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Deterministic ordering: higher target delta first within an expiry.
	short := entries[0]
	if short.TargetDelta != 0.50 || short.Quantity != -1 {
		t.Errorf("first entry = %+v, want the short 50-delta leg", short)
	}
	wantRoll := time.Date(2025, 8, 19, 0, 0, 0, 0, time.UTC)
	if !short.RollDate.Equal(wantRoll) {
		t.Errorf("roll date = %v, want %v", short.RollDate, wantRoll)
	}
	if short.EntryPrice != 2.10 || short.EntryDelta != 0.48 {
		t.Errorf("entry price/delta = %v/%v, want 2.10/0.48", short.EntryPrice, short.EntryDelta)
	}

	long := entries[1]
	if long.TargetDelta != 0.10 || long.Quantity != 2 {
		t.Errorf("second entry = %+v, want the long 10-delta leg", long)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	cycles := []selector.PositionCycle{augustCycle()}

	a, err := Build(cycles)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	b, err := Build(cycles)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("rebuild differs:\n%+v\n%+v", a, b)
	}
}

func TestBuildRejectsInvalidLeg(t *testing.T) {
	cycle := augustCycle()
	cycle.Legs[0].EntryPrice = 0 // contract violation, should never pass the selector

	if _, err := Build([]selector.PositionCycle{cycle}); err == nil {
		t.Fatal("expected error for zero entry price")
	}
}

func TestBuildHedge(t *testing.T) {
	cycle := augustCycle()
	future := contracts.Spec{
		Symbol: "UXQ25 Index",
		Kind:   contracts.KindFuture,
		Expiry: cycle.Expiry,
	}
	snap := marketdata.QuoteSnapshot{
		Symbol: future.Symbol,
		Date:   cycle.EntryDate,
		Last:   marketdata.Known(17.35),
	}

	entry, err := BuildHedge(cycle, future, snap, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Kind != contracts.KindFuture || entry.Role != selector.RoleShort {
		t.Errorf("hedge entry = %+v, want short future", entry)
	}
	if entry.EntryPrice != 17.35 || entry.EntryDelta != 1 {
		t.Errorf("hedge price/delta = %v/%v, want 17.35/1", entry.EntryPrice, entry.EntryDelta)
	}
	if !entry.RollDate.Equal(cycle.Expiry.RollDate()) {
		t.Errorf("hedge roll date = %v, want %v", entry.RollDate, cycle.Expiry.RollDate())
	}

	// No usable price is a hard failure, not a zero-priced entry.
	if _, err := BuildHedge(cycle, future, marketdata.QuoteSnapshot{}, -1); err == nil {
		t.Fatal("expected error for unknown hedge price")
	}
}

func TestCSVStoreRoundTrip(t *testing.T) {
	entries, err := Build([]selector.PositionCycle{augustCycle()})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "data", "position_manifest.csv")
	store := NewCSVStore(path)

	if _, err := store.Load(); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("load before save: got %v, want ErrNoManifest", err)
	}

	if err := store.Save(entries); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(entries, loaded) {
		t.Errorf("round trip mismatch:\nsaved:  %+v\nloaded: %+v", entries, loaded)
	}
}

func TestCSVStoreRefusesInvalidEntries(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "manifest.csv"))
	bad := Entry{Symbol: "VIX 08/20/25 C20 Index", Kind: contracts.KindCallOption, Quantity: -1}
	if err := store.Save([]Entry{bad}); err == nil {
		t.Fatal("expected validation error")
	}
}
