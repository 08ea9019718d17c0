package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
)

// Outcome says how a failed call should be treated.
type Outcome struct {
	Retry bool
	Trip  bool // counts against the breaker
}

type Classifier func(err error) Outcome

// Executor runs calls through a per-operation circuit breaker.
type Executor struct {
	policy Policy
	log    *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(p Policy, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		policy:   p.normalize(),
		log:      log,
		breakers: map[string]*gobreaker.CircuitBreaker[struct{}]{},
	}
}

func (e *Executor) Execute(ctx context.Context, op string, fn func(context.Context) error, classify Classifier) error {
	if classify == nil {
		classify = func(error) Outcome { return Outcome{Trip: true} }
	}
	if !e.policy.Breaker {
		return e.attempt(ctx, op, fn, classify)
	}
	_, err := e.breaker(op, classify).Execute(func() (struct{}, error) {
		return struct{}{}, e.attempt(ctx, op, fn, classify)
	})
	if IsOpen(err) {
		return fmt.Errorf("%s: %w: %w", op, ai.ErrUnavailable, err)
	}
	return err
}

func (e *Executor) attempt(ctx context.Context, op string, fn func(context.Context) error, classify Classifier) error {
	wait := e.policy.Backoff
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if n >= e.policy.Attempts || !classify(err).Retry {
			return err
		}
		e.log.Warn("llm call retry", "operation", op, "attempt", n, "backoff_ms", wait.Milliseconds(), "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
		wait *= 2
		if wait > e.policy.MaxBackoff {
			wait = e.policy.MaxBackoff
		}
	}
}

func (e *Executor) breaker(op string, classify Classifier) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cb, ok := e.breakers[op]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        op,
		MaxRequests: e.policy.HalfOpenMax,
		Timeout:     e.policy.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < e.policy.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= e.policy.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).Trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.log.Warn("circuit breaker state change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[op] = cb
	return cb
}

// IsOpen reports whether err came from an open or saturated breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
