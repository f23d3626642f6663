package marketdata

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedGateway throttles outbound vendor requests with a token bucket
// sized against the configured max requests per second. This replaces the
// fixed per-request sleeps of earlier collectors: concurrent callers share
// one bucket and block only when the budget is spent.
type RateLimitedGateway struct {
	gateway Gateway
	limiter *rate.Limiter
}

// NewRateLimitedGateway wraps gateway with a token bucket of requestsPerSec
// sustained rate and burst capacity. A non-positive rate disables limiting.
func NewRateLimitedGateway(gateway Gateway, requestsPerSec float64, burst int) *RateLimitedGateway {
	limit := rate.Inf
	if requestsPerSec > 0 {
		limit = rate.Limit(requestsPerSec)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGateway{
		gateway: gateway,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Ensure RateLimitedGateway implements Gateway at compile time.
var _ Gateway = (*RateLimitedGateway)(nil)

// BatchReferenceSnapshot waits for a token, then delegates.
func (r *RateLimitedGateway) BatchReferenceSnapshot(ctx context.Context, symbols []string, fields []Field) (map[string]SnapshotResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.gateway.BatchReferenceSnapshot(ctx, symbols, fields)
}

// BatchHistoricalSeries waits for a token, then delegates.
func (r *RateLimitedGateway) BatchHistoricalSeries(ctx context.Context, symbol string, fields []Field, start, end time.Time) ([]QuoteSnapshot, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.gateway.BatchHistoricalSeries(ctx, symbol, fields, start, end)
}
