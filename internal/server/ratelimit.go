package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitConfig sets per-client limits. A zero limit is not enforced.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes
}

// RateLimiter enforces sliding-window request rates and daily quotas per
// client.
type RateLimiter struct {
	mu      sync.Mutex
	config  RateLimitConfig
	now     func() time.Time
	clients map[string]*clientUsage
}

// clientUsage tracks one client. requests holds the request times of the
// last hour, oldest first.
type clientUsage struct {
	requests      []time.Time
	day           time.Time
	requestsToday int
	bytesToday    int64
}

// Usage is a snapshot of one client's consumption.
type Usage struct {
	RequestsLastMinute int
	RequestsLastHour   int
	RequestsToday      int
	BytesToday         int64
}

// NewRateLimiter creates a rate limiter with the given limits.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config:  config,
		now:     time.Now,
		clients: make(map[string]*clientUsage),
	}
}

// Allow records a request of size bytes from client, or returns a
// *RateLimitError or *QuotaExceededError without recording it.
func (rl *RateLimiter) Allow(client string, size int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage := rl.usageFor(client, now)

	if limit := rl.config.RequestsPerMinute; limit > 0 {
		if recent := since(usage.requests, now.Add(-time.Minute)); len(recent) >= limit {
			return &RateLimitError{Window: "minute", Limit: limit, RetryAfter: recent[0].Add(time.Minute).Sub(now)}
		}
	}
	if limit := rl.config.RequestsPerHour; limit > 0 && len(usage.requests) >= limit {
		return &RateLimitError{Window: "hour", Limit: limit, RetryAfter: usage.requests[0].Add(time.Hour).Sub(now)}
	}

	resets := usage.day.AddDate(0, 0, 1)
	if limit := rl.config.MaxRequestsPerDay; limit > 0 && usage.requestsToday >= limit {
		return &QuotaExceededError{Quota: "requests", Limit: int64(limit), Used: int64(usage.requestsToday), Resets: resets}
	}
	if limit := rl.config.MaxDataPerDay; limit > 0 && usage.bytesToday+size > limit {
		return &QuotaExceededError{Quota: "data", Limit: limit, Used: usage.bytesToday, Resets: resets}
	}

	usage.requests = append(usage.requests, now)
	usage.requestsToday++
	usage.bytesToday += size
	return nil
}

// Usage returns a snapshot of a client's current consumption.
func (rl *RateLimiter) Usage(client string) Usage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	usage, ok := rl.clients[client]
	if !ok {
		return Usage{}
	}
	now := rl.now()
	rl.expire(usage, now)
	return Usage{
		RequestsLastMinute: len(since(usage.requests, now.Add(-time.Minute))),
		RequestsLastHour:   len(usage.requests),
		RequestsToday:      usage.requestsToday,
		BytesToday:         usage.bytesToday,
	}
}

func (rl *RateLimiter) usageFor(client string, now time.Time) *clientUsage {
	usage, ok := rl.clients[client]
	if !ok {
		usage = &clientUsage{day: startOfDay(now)}
		rl.clients[client] = usage
	}
	rl.expire(usage, now)
	return usage
}

// expire drops requests older than an hour and resets daily counters at
// midnight.
func (rl *RateLimiter) expire(usage *clientUsage, now time.Time) {
	usage.requests = since(usage.requests, now.Add(-time.Hour))
	if today := startOfDay(now); !today.Equal(usage.day) {
		usage.day = today
		usage.requestsToday = 0
		usage.bytesToday = 0
	}
}

// since returns the suffix of the sorted times that is after cutoff.
func since(times []time.Time, cutoff time.Time) []time.Time {
	for i, t := range times {
		if t.After(cutoff) {
			return times[i:]
		}
	}
	return times[:0]
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RateLimitError reports a request rate above a window limit.
type RateLimitError struct {
	Window     string // "minute" or "hour"
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s (retry after %v)", e.Limit, e.Window, e.RetryAfter.Round(time.Second))
}

// QuotaExceededError reports an exhausted daily quota.
type QuotaExceededError struct {
	Quota  string // "requests" or "data"
	Limit  int64
	Used   int64
	Resets time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily %s quota exceeded (used %d of %d, resets %s)",
		e.Quota, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
