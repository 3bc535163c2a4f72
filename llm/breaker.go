package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// BreakerBackend wraps a Backend with a circuit breaker so a failing model
// endpoint opens fast instead of timing out every stage of a chain.
type BreakerBackend struct {
	inner   Backend
	breaker *gobreaker.CircuitBreaker[string]
}

// NewBreakerBackend creates a circuit-breaking decorator around a backend.
func NewBreakerBackend(inner Backend) *BreakerBackend {
	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// Caller-side cancellation says nothing about backend health.
			if errors.Is(err, context.Canceled) {
				return true
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}
	return &BreakerBackend{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Generate implements Backend.
func (b *BreakerBackend) Generate(ctx context.Context, req Request) (string, error) {
	return b.breaker.Execute(func() (string, error) {
		return b.inner.Generate(ctx, req)
	})
}

// IsCircuitOpen reports whether an error came from an open breaker rather
// than the backend itself.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
