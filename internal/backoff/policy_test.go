package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()
	require.Equal(t, 5, p.MaxAttempts)
	require.Equal(t, time.Second, p.Interval)
	require.Equal(t, 4*time.Second, p.MaxWait())
}

func TestPolicy_NormalizesZeroValue(t *testing.T) {
	var p Policy
	require.Equal(t, Default().MaxWait(), p.MaxWait())
}

func TestDo_ExhaustsAfterMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 5, Interval: time.Millisecond}
	rec := NewRecorder(p.Backoff())
	boom := errors.New("not yet")

	calls := 0
	_, err := Do(context.Background(), rec, func(_ context.Context, attempt int) (int, error) {
		calls++
		require.Equal(t, calls, attempt)
		return 0, retry.RetryableError(boom)
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 5, calls)
	require.Len(t, rec.Waits, 4)
	require.Equal(t, 4*time.Millisecond, rec.Total())
	require.LessOrEqual(t, rec.Total(), p.MaxWait())
}

func TestDo_StopsOnSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 5, Interval: time.Millisecond}
	rec := NewRecorder(p.Backoff())

	v, err := Do(context.Background(), rec, func(_ context.Context, attempt int) (string, error) {
		if attempt < 3 {
			return "", retry.RetryableError(errors.New("empty"))
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Len(t, rec.Waits, 2)
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	p := Policy{MaxAttempts: 5, Interval: time.Millisecond}
	fatal := errors.New("fatal")

	calls := 0
	_, err := Do(context.Background(), p.Backoff(), func(context.Context, int) (int, error) {
		calls++
		return 0, fatal
	})
	require.ErrorIs(t, err, fatal)
	require.Equal(t, 1, calls)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, Default().Backoff(), func(context.Context, int) (int, error) {
		calls++
		return 0, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, calls)
}
