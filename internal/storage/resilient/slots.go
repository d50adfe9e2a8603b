// Package resilient decorates a remote slot backend with retries and a
// circuit breaker.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/metrics"
	"github.com/symptom-checker/backend/internal/storage"
	"github.com/symptom-checker/backend/pkg/logger"
	"github.com/symptom-checker/backend/pkg/retry"
)

type Config struct {
	Retry               retry.Config
	BreakerTimeout      time.Duration
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
}

type Slots struct {
	next    storage.Slots
	retry   retry.Config
	breaker *gobreaker.CircuitBreaker
}

func Wrap(next storage.Slots, cfg Config) *Slots {
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = 5
	}
	if cfg.BreakerFailureRatio <= 0 {
		cfg.BreakerFailureRatio = 0.6
	}
	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = logger.Named("retry").With(zap.String("backend", next.Name()))
	}

	backend := next.Name()
	metrics.BreakerState.WithLabelValues(backend).Set(float64(gobreaker.StateClosed))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        backend,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("Slot backend circuit breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, storage.ErrSlotNotFound)
		},
	})

	return &Slots{next: next, retry: cfg.Retry, breaker: breaker}
}

func (s *Slots) Name() string { return s.next.Name() }

// State reports the breaker state, mostly for readiness checks.
func (s *Slots) State() gobreaker.State { return s.breaker.State() }

// Ping fails fast while the breaker is open, otherwise it pings the wrapped
// backend when that backend supports it.
func (s *Slots) Ping(ctx context.Context) error {
	if s.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("slot backend %s: %w", s.Name(), gobreaker.ErrOpenState)
	}
	if p, ok := s.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Slots) Get(ctx context.Context, slot string) ([]byte, error) {
	return retry.DoWithResult(ctx, s.retry, func(ctx context.Context) ([]byte, error) {
		out, err := s.breaker.Execute(func() (interface{}, error) {
			return s.next.Get(ctx, slot)
		})
		if err != nil {
			return nil, classify(err)
		}
		return out.([]byte), nil
	})
}

func (s *Slots) Put(ctx context.Context, slot string, payload []byte) error {
	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.next.Put(ctx, slot, payload)
		})
		return classify(err)
	})
}

func (s *Slots) Delete(ctx context.Context, slot string) error {
	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.next.Delete(ctx, slot)
		})
		return classify(err)
	})
}

// classify stops retries for outcomes another attempt cannot change.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrSlotNotFound):
		return retry.Permanent(err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return retry.Permanent(fmt.Errorf("slot backend unavailable: %w", err))
	default:
		return err
	}
}
