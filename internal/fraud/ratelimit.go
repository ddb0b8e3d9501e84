package fraud

import (
	"context"
	"sync"
	"time"
)

// Default sliding-window parameters: 10 clicks per IP per minute.
const (
	RateLimitWindow = 60 * time.Second
	RateLimitMax    = 10
)

// RateLimiter is the pluggable per-IP rate-limit strategy. It is a fraud
// signal, not an admission gate: approximate enforcement is acceptable.
type RateLimiter interface {
	Allow(ctx context.Context, ip string) (bool, error)
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

// WindowLimiter keeps per-IP counters in process memory. State resets on
// restart and is per-instance in a multi-instance deployment.
type WindowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	window  time.Duration
	limit   int
	now     func() time.Time
}

// NewWindowLimiter creates an in-memory limiter with the default window and
// threshold.
func NewWindowLimiter() *WindowLimiter {
	return newWindowLimiter(RateLimitWindow, RateLimitMax, time.Now)
}

func newWindowLimiter(window time.Duration, limit int, now func() time.Time) *WindowLimiter {
	return &WindowLimiter{
		entries: make(map[string]*windowEntry),
		window:  window,
		limit:   limit,
		now:     now,
	}
}

// Allow counts the request against the IP's current window and reports
// whether the count after the increment is still within the threshold, so
// the 11th request inside a window is the first one refused.
func (l *WindowLimiter) Allow(_ context.Context, ip string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[ip]
	if !ok || now.Sub(entry.windowStart) > l.window {
		l.entries[ip] = &windowEntry{count: 1, windowStart: now}
		return 1 <= l.limit, nil
	}

	entry.count++
	return entry.count <= l.limit, nil
}
