package marketdata

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerGateway wraps a Gateway with circuit breaker functionality so
// a failing vendor feed stops the batch fast instead of timing out symbol by
// symbol.
type CircuitBreakerGateway struct {
	gateway Gateway
	breaker *gobreaker.CircuitBreaker
}

// CircuitBreakerSettings configures circuit breaker behavior.
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// execBreaker is a generic helper for circuit breaker wrapper methods.
func execBreaker[T any](
	breaker *gobreaker.CircuitBreaker,
	gateway Gateway,
	fn func(Gateway) (T, error),
) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(gateway) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// NewCircuitBreakerGateway creates a CircuitBreakerGateway with sensible defaults.
func NewCircuitBreakerGateway(gateway Gateway) *CircuitBreakerGateway {
	return NewCircuitBreakerGatewayWithSettings(gateway, CircuitBreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewCircuitBreakerGatewayWithSettings creates a CircuitBreakerGateway with
// custom settings.
func NewCircuitBreakerGatewayWithSettings(gateway Gateway, settings CircuitBreakerSettings) *CircuitBreakerGateway {
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}

	return &CircuitBreakerGateway{
		gateway: gateway,
		breaker: gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// Ensure CircuitBreakerGateway implements Gateway at compile time.
var _ Gateway = (*CircuitBreakerGateway)(nil)

// BatchReferenceSnapshot wraps the underlying gateway call with the circuit breaker.
func (c *CircuitBreakerGateway) BatchReferenceSnapshot(ctx context.Context, symbols []string, fields []Field) (map[string]SnapshotResult, error) {
	return execBreaker(c.breaker, c.gateway, func(g Gateway) (map[string]SnapshotResult, error) {
		return g.BatchReferenceSnapshot(ctx, symbols, fields)
	})
}

// BatchHistoricalSeries wraps the underlying gateway call with the circuit breaker.
func (c *CircuitBreakerGateway) BatchHistoricalSeries(ctx context.Context, symbol string, fields []Field, start, end time.Time) ([]QuoteSnapshot, error) {
	return execBreaker(c.breaker, c.gateway, func(g Gateway) ([]QuoteSnapshot, error) {
		return g.BatchHistoricalSeries(ctx, symbol, fields, start, end)
	})
}
