package contracts

import (
	"testing"
	"time"

	"github.com/vol-trader-arslancm/BloombergData/internal/expiry"
)

func expiryFor(year int, month time.Month) expiry.Date {
	return expiry.Date{
		Date:  expiry.ThirdWednesday(year, month),
		Year:  year,
		Month: int(month),
	}
}

func TestOptionSymbolGrammar(t *testing.T) {
	aug := expiryFor(2025, time.August)

	tests := []struct {
		strike float64
		want   string
	}{
		{20, "VIX 08/20/25 C20 Index"},
		{22.5, "VIX 08/20/25 C22.5 Index"},
		{5, "VIX 08/20/25 C5 Index"},
	}
	for _, tt := range tests {
		if got := OptionSymbol(aug, tt.strike); got != tt.want {
			t.Errorf("OptionSymbol(strike=%v) = %q, want %q", tt.strike, got, tt.want)
		}
	}
}

func TestFutureSymbolGrammar(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  string
	}{
		{2025, time.August, "UXQ25 Index"},
		{2025, time.January, "UXF25 Index"},
		{2026, time.December, "UXZ26 Index"},
	}
	for _, tt := range tests {
		if got := FutureSymbol(expiryFor(tt.year, tt.month)); got != tt.want {
			t.Errorf("FutureSymbol(%d-%s) = %q, want %q", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestStrikeLadder(t *testing.T) {
	ladder := StrikeLadder(10, 20, 2, []float64{15, 12, 18})

	want := []float64{10, 12, 14, 15, 16, 18, 20}
	if len(ladder) != len(want) {
		t.Fatalf("ladder = %v, want %v", ladder, want)
	}
	for i := range want {
		if ladder[i] != want[i] {
			t.Fatalf("ladder = %v, want %v", ladder, want)
		}
	}
}

func TestStrikeLadderDropsNonPositive(t *testing.T) {
	ladder := StrikeLadder(0, 4, 2, []float64{-5, 0, 3})
	want := []float64{2, 3, 4}
	if len(ladder) != len(want) {
		t.Fatalf("ladder = %v, want %v", ladder, want)
	}
}

func TestOptionUniverseIsCartesianProduct(t *testing.T) {
	expiries := []expiry.Date{expiryFor(2025, time.July), expiryFor(2025, time.August)}
	strikes := []float64{15, 20, 25}

	specs := OptionUniverse(expiries, strikes)
	if len(specs) != len(expiries)*len(strikes) {
		t.Fatalf("got %d specs, want %d", len(specs), len(expiries)*len(strikes))
	}
	seen := make(map[string]bool)
	for _, s := range specs {
		if s.Kind != KindCallOption {
			t.Errorf("%s: kind = %s, want %s", s.Symbol, s.Kind, KindCallOption)
		}
		if seen[s.Symbol] {
			t.Errorf("duplicate symbol %s", s.Symbol)
		}
		seen[s.Symbol] = true
	}
}

func TestFutureUniverseOnePerExpiry(t *testing.T) {
	expiries := []expiry.Date{expiryFor(2025, time.July), expiryFor(2025, time.August)}
	specs := FutureUniverse(expiries)
	if len(specs) != 2 {
		t.Fatalf("got %d futures, want 2", len(specs))
	}
	for _, s := range specs {
		if s.Kind != KindFuture {
			t.Errorf("%s: kind = %s, want %s", s.Symbol, s.Kind, KindFuture)
		}
		if s.Strike != 0 {
			t.Errorf("%s: future carries strike %v", s.Symbol, s.Strike)
		}
	}
}

func TestFrontMonthPicksFirstExpiryStrictlyAfter(t *testing.T) {
	futures := FutureUniverse([]expiry.Date{
		expiryFor(2025, time.July),
		expiryFor(2025, time.August),
		expiryFor(2025, time.September),
	})

	// Entry mid-July: July expiry (2025-07-16) already passed, front month is August.
	entry := time.Date(2025, 7, 17, 0, 0, 0, 0, time.UTC)
	front, ok := FrontMonth(futures, entry)
	if !ok {
		t.Fatal("expected a front-month future")
	}
	if front.Symbol != "UXQ25 Index" {
		t.Errorf("front month = %s, want UXQ25 Index", front.Symbol)
	}

	// Entry exactly on the August expiry: strictly-after rule skips to September.
	front, ok = FrontMonth(futures, expiryFor(2025, time.August).Date)
	if !ok {
		t.Fatal("expected a front-month future")
	}
	if front.Symbol != "UXU25 Index" {
		t.Errorf("front month = %s, want UXU25 Index", front.Symbol)
	}

	// Entry after the last expiry: nothing left.
	if _, ok := FrontMonth(futures, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("expected no front month past the last expiry")
	}
}
