package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "request:r1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "request:r1", time.Minute)
	require.ErrorIs(t, err, ErrLocked)

	// other keys are independent
	other, err := l.Acquire(ctx, "request:r2", time.Minute)
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Acquire(ctx, "request:r1", time.Minute)
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_ExpiredLockCanBeTaken(t *testing.T) {
	l := NewMemoryLocker()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	stale, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	// the stale holder must not free the new lock
	stale()
	_, err = l.Acquire(context.Background(), "k", time.Second)
	require.ErrorIs(t, err, ErrLocked)
	fresh()
}

func TestMemoryLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryLocker().Acquire(ctx, "k", time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
