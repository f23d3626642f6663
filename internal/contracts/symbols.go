package contracts

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseOptionSymbol inverts OptionSymbol: it extracts the expiration date and
// strike from a "VIX MM/DD/YY C{strike} Index" ticker. Used by synthetic data
// providers; real vendors resolve tickers themselves.
func ParseOptionSymbol(symbol string) (time.Time, float64, error) {
	parts := strings.Fields(symbol)
	if len(parts) != 4 || parts[0] != "VIX" || parts[3] != "Index" || !strings.HasPrefix(parts[2], "C") {
		return time.Time{}, 0, fmt.Errorf("not a VIX call option symbol: %q", symbol)
	}
	exp, err := time.Parse("01/02/06", parts[1])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("bad expiry in symbol %q: %w", symbol, err)
	}
	strike, err := strconv.ParseFloat(parts[2][1:], 64)
	if err != nil || strike <= 0 {
		return time.Time{}, 0, fmt.Errorf("bad strike in symbol %q", symbol)
	}
	return exp, strike, nil
}

// IsFutureSymbol reports whether symbol is a UX calendar future ticker.
func IsFutureSymbol(symbol string) bool {
	return strings.HasPrefix(symbol, "UX") && strings.HasSuffix(symbol, " Index")
}
