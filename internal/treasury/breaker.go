package treasury

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rickgao/dao-risk/internal/model"
)

// BreakerConfig configures the circuit breaker around a provider.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32        // Requests allowed while half-open
	Interval    time.Duration // Closed-state count reset period
	Timeout     time.Duration // Open duration before probing again
	Failures    uint32        // Consecutive failures that trip the breaker
}

// Breaker stops calling a failing provider until it recovers.
type Breaker struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewBreaker wraps provider in a circuit breaker.
func NewBreaker(provider Provider, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Failures == 0 {
		cfg.Failures = 3
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider breaker state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			// The caller giving up says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{provider: provider, cb: cb}
}

// Fetch calls the provider unless the breaker is open, in which case it
// fails fast with gobreaker.ErrOpenState.
func (b *Breaker) Fetch(ctx context.Context) ([]model.Valuation, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.provider.Fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Valuation), nil
}

// State returns the breaker state name.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
