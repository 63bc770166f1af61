package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg RateLimitConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(cfg)
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter_NoLimits(t *testing.T) {
	rl, _ := newTestLimiter(RateLimitConfig{})

	for range 100 {
		require.NoError(t, rl.Allow("10.0.0.1", 1<<20))
	}
	usage := rl.Usage("10.0.0.1")
	assert.Equal(t, 100, usage.RequestsToday)
	assert.Equal(t, int64(100<<20), usage.BytesToday)
}

func TestRateLimiter_RequestsPerMinute(t *testing.T) {
	rl, clock := newTestLimiter(RateLimitConfig{RequestsPerMinute: 2})

	require.NoError(t, rl.Allow("a", 0))
	clock.Advance(10 * time.Second)
	require.NoError(t, rl.Allow("a", 0))

	err := rl.Allow("a", 0)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "minute", rlErr.Window)
	assert.Equal(t, 2, rlErr.Limit)
	assert.Equal(t, 50*time.Second, rlErr.RetryAfter)

	// Other clients are unaffected.
	require.NoError(t, rl.Allow("b", 0))

	// The first request leaves the window after a minute.
	clock.Advance(51 * time.Second)
	require.NoError(t, rl.Allow("a", 0))
}

func TestRateLimiter_RequestsPerHour(t *testing.T) {
	rl, clock := newTestLimiter(RateLimitConfig{RequestsPerHour: 3})

	for range 3 {
		require.NoError(t, rl.Allow("a", 0))
		clock.Advance(5 * time.Minute)
	}

	var rlErr *RateLimitError
	require.ErrorAs(t, rl.Allow("a", 0), &rlErr)
	assert.Equal(t, "hour", rlErr.Window)
	assert.Equal(t, 45*time.Minute, rlErr.RetryAfter)

	clock.Advance(46 * time.Minute)
	require.NoError(t, rl.Allow("a", 0))
}

func TestRateLimiter_DailyRequestQuota(t *testing.T) {
	rl, clock := newTestLimiter(RateLimitConfig{MaxRequestsPerDay: 2})

	require.NoError(t, rl.Allow("a", 0))
	require.NoError(t, rl.Allow("a", 0))

	var qErr *QuotaExceededError
	require.ErrorAs(t, rl.Allow("a", 0), &qErr)
	assert.Equal(t, "requests", qErr.Quota)
	assert.Equal(t, int64(2), qErr.Used)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), qErr.Resets)

	clock.Advance(14 * time.Hour)
	require.NoError(t, rl.Allow("a", 0))
}

func TestRateLimiter_DailyDataQuota(t *testing.T) {
	rl, _ := newTestLimiter(RateLimitConfig{MaxDataPerDay: 1000})

	require.NoError(t, rl.Allow("a", 600))

	var qErr *QuotaExceededError
	require.ErrorAs(t, rl.Allow("a", 500), &qErr)
	assert.Equal(t, "data", qErr.Quota)
	assert.Equal(t, int64(600), qErr.Used)
	assert.Contains(t, qErr.Error(), "daily data quota exceeded")

	require.NoError(t, rl.Allow("a", 400))
}

func TestRateLimiter_RejectedRequestsAreNotCounted(t *testing.T) {
	rl, _ := newTestLimiter(RateLimitConfig{RequestsPerMinute: 1})

	require.NoError(t, rl.Allow("a", 10))
	require.Error(t, rl.Allow("a", 10))
	require.Error(t, rl.Allow("a", 10))

	usage := rl.Usage("a")
	assert.Equal(t, 1, usage.RequestsLastMinute)
	assert.Equal(t, 1, usage.RequestsToday)
	assert.Equal(t, int64(10), usage.BytesToday)
}

func TestRateLimiter_UnknownClient(t *testing.T) {
	rl, _ := newTestLimiter(RateLimitConfig{})
	assert.Equal(t, Usage{}, rl.Usage("nobody"))
}
