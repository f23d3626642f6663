// Package marketdata defines the market data gateway boundary.
//
// Everything upstream of this package is pure computation; all suspension and
// all vendor-specific behavior lives behind the Gateway interface. Quote
// fields are optional-valued: a field the vendor did not return is unknown,
// never zero, and the two must stay distinguishable all the way through the
// eligibility filter and P&L computation.
package marketdata

import (
	"context"
	"errors"
	"time"
)

// Field names the vendor reference-data fields this system requests.
type Field string

// Reference and historical data fields.
const (
	FieldLast         Field = "PX_LAST"
	FieldBid          Field = "PX_BID"
	FieldAsk          Field = "PX_ASK"
	FieldMid          Field = "PX_MID"
	FieldSettle       Field = "PX_SETTLE"
	FieldVolume       Field = "PX_VOLUME"
	FieldOpenInterest Field = "OPEN_INT"
	FieldDelta        Field = "DELTA_MID"
	FieldGamma        Field = "GAMMA_MID"
	FieldTheta        Field = "THETA_MID"
	FieldVega         Field = "VEGA_MID"
	FieldImpliedVol   Field = "IVOL_MID"
)

// OptionFields is the standard field set for option snapshots.
var OptionFields = []Field{
	FieldLast, FieldBid, FieldAsk, FieldMid, FieldVolume, FieldOpenInterest,
	FieldDelta, FieldGamma, FieldTheta, FieldVega, FieldImpliedVol,
}

// FutureFields is the standard field set for futures series.
var FutureFields = []Field{
	FieldLast, FieldSettle, FieldVolume, FieldOpenInterest,
}

// Float is an optional float64. The zero value is "unknown".
type Float struct {
	Value float64
	Valid bool
}

// Known wraps a known value.
func Known(v float64) Float {
	return Float{Value: v, Valid: true}
}

// Or returns the value if known, otherwise def.
func (f Float) Or(def float64) float64 {
	if f.Valid {
		return f.Value
	}
	return def
}

// QuoteSnapshot is one symbol's quote and Greeks on one date. Any field may
// be unknown.
type QuoteSnapshot struct {
	Symbol       string
	Date         time.Time
	Last         Float
	Bid          Float
	Ask          Float
	Mid          Float
	Settle       Float
	Volume       Float
	OpenInterest Float
	Delta        Float
	Gamma        Float
	Theta        Float
	Vega         Float
	ImpliedVol   Float
}

// MidOrLast resolves the tradeable price: the vendor mid if present, else
// (bid+ask)/2 when both sides are known, else last. Unknown when none apply.
func (q QuoteSnapshot) MidOrLast() Float {
	if q.Mid.Valid {
		return q.Mid
	}
	if q.Bid.Valid && q.Ask.Valid {
		return Known((q.Bid.Value + q.Ask.Value) / 2)
	}
	return q.Last
}

// ErrGatewayTimeout indicates the vendor did not respond within the bounded
// timeout. Retryable by the caller; this layer never retries internally.
var ErrGatewayTimeout = errors.New("marketdata: gateway timeout")

// SnapshotResult is the per-symbol outcome of a batch reference request.
// Exactly one of the three cases holds: a snapshot, NotFound (the security
// does not exist or has no data at all), or Err (transport or vendor
// failure). NotFound is not an error: over-generated candidate symbols are
// expected to miss.
type SnapshotResult struct {
	Snapshot QuoteSnapshot
	NotFound bool
	Err      error
}

// Gateway is the market data collaborator boundary. Implementations must be
// safe for concurrent use: the pipeline fans out per-expiry and per-symbol
// work across goroutines against a single Gateway instance.
type Gateway interface {
	// BatchReferenceSnapshot fetches current values of the given fields for
	// each symbol. The returned map has one entry per requested symbol.
	BatchReferenceSnapshot(ctx context.Context, symbols []string, fields []Field) (map[string]SnapshotResult, error)

	// BatchHistoricalSeries fetches a daily series for one symbol over
	// [start, end], ordered ascending by date. Days without data are absent
	// from the result, never zero-filled.
	BatchHistoricalSeries(ctx context.Context, symbol string, fields []Field, start, end time.Time) ([]QuoteSnapshot, error)
}
