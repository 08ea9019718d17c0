package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteDefaultPolicyDoesNotRetry(t *testing.T) {
	exec := NewExecutor(Policy{Breaker: false}, quietLogger())
	calls := 0
	boom := errors.New("boom")

	err := exec.Execute(context.Background(), "chat", func(context.Context) error {
		calls++
		return boom
	}, func(error) Outcome { return Outcome{Retry: true, Trip: true} })

	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestExecuteRetriesWhenConfigured(t *testing.T) {
	exec := NewExecutor(Policy{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}, quietLogger())
	calls := 0
	err := exec.Execute(context.Background(), "chat", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	}, func(error) Outcome { return Outcome{Retry: true, Trip: true} })

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestExecuteOpensBreaker(t *testing.T) {
	exec := NewExecutor(Policy{
		Breaker:      true,
		MinRequests:  2,
		FailureRatio: 0.5,
		OpenTimeout:  time.Minute,
	}, quietLogger())
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }

	require.ErrorIs(t, exec.Execute(context.Background(), "chat", fail, nil), boom)
	require.ErrorIs(t, exec.Execute(context.Background(), "chat", fail, nil), boom)

	calls := 0
	err := exec.Execute(context.Background(), "chat", func(context.Context) error {
		calls++
		return nil
	}, nil)
	require.True(t, IsOpen(err), "got %v", err)
	require.ErrorIs(t, err, ai.ErrUnavailable)
	require.Zero(t, calls)

	require.NoError(t, exec.Execute(context.Background(), "other", func(context.Context) error { return nil }, nil))
}

func TestExecuteIgnoresNonTrippingFailures(t *testing.T) {
	exec := NewExecutor(Policy{Breaker: true, MinRequests: 1, FailureRatio: 0.1}, quietLogger())
	canceled := func(context.Context) error { return context.Canceled }
	noTrip := func(error) Outcome { return Outcome{} }

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, exec.Execute(context.Background(), "chat", canceled, noTrip), context.Canceled)
	}
	require.NoError(t, exec.Execute(context.Background(), "chat", func(context.Context) error { return nil }, nil))
}

func TestExecuteStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewExecutor(Policy{}, quietLogger()).Execute(ctx, "chat", func(context.Context) error {
		called = true
		return nil
	}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}
