package distance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterDelaysOverflowCall(t *testing.T) {
	l := NewRateLimiter(2, 0)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))

	// Third call within the same second must wait for a slot.
	require.NoError(t, l.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond,
		"third call should be delayed until the window frees a slot")
}

func TestRateLimiterDailyQuota(t *testing.T) {
	l := NewRateLimiter(10, 2)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))

	err := l.Wait(ctx)
	require.ErrorIs(t, err, ErrDailyQuotaExceeded)
}

func TestRateLimiterHonorsContext(t *testing.T) {
	l := NewRateLimiter(1, 0)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
