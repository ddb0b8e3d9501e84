package fraud

import (
	"context"
	"testing"
	"time"
)

func TestClassifyBot(t *testing.T) {
	botAgents := []string{
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		"curl/8.4.0",
		"python-requests/2.31.0",
		"Mozilla/5.0 (X11; Linux x86_64) HeadlessChrome/119.0.0.0",
		"Go-http-client/1.1",
		"facebookexternalhit/1.1",
	}
	for _, ua := range botAgents {
		if !ClassifyBot(ua) {
			t.Errorf("expected %q to classify as bot", ua)
		}
	}

	humanAgents := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		"",
	}
	for _, ua := range humanAgents {
		if ClassifyBot(ua) {
			t.Errorf("expected %q to classify as human", ua)
		}
	}
}

func TestScoreComposite(t *testing.T) {
	// Bot overrides any rate-limit contribution.
	if got := Score(true, true); got != 100 {
		t.Errorf("bot within limit: expected 100, got %d", got)
	}
	if got := Score(true, false); got != 100 {
		t.Errorf("bot over limit: expected 100, got %d", got)
	}
	if got := Score(false, false); got != 50 {
		t.Errorf("rate limited only: expected 50, got %d", got)
	}
	if got := Score(false, true); got != 0 {
		t.Errorf("clean click: expected 0, got %d", got)
	}
}

func TestWindowLimiterThreshold(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := newWindowLimiter(RateLimitWindow, RateLimitMax, func() time.Time { return now })

	ctx := context.Background()
	for i := 1; i <= RateLimitMax; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be within limit", i)
		}
	}

	// The 11th request in the same window is the first refusal.
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if ok {
		t.Error("request over threshold should be refused")
	}

	// Other IPs are unaffected.
	ok, _ = limiter.Allow(ctx, "10.0.0.2")
	if !ok {
		t.Error("different IP should start its own window")
	}
}

func TestWindowLimiterReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := newWindowLimiter(RateLimitWindow, RateLimitMax, func() time.Time { return now })

	ctx := context.Background()
	for i := 0; i <= RateLimitMax; i++ {
		limiter.Allow(ctx, "10.0.0.1")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); ok {
		t.Fatal("expected IP to be over the limit")
	}

	// Advance past the window: the counter resets to 1.
	now = now.Add(RateLimitWindow + time.Second)
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !ok {
		t.Error("expected a fresh window after expiry")
	}
}
