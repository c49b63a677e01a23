package worker

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://localhost:11434/api/embed"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://api.openai.com/v1"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_NilNeverBlocks(t *testing.T) {
	var limiter *Limiter
	if err := limiter.Wait(context.Background(), "https://api.openai.com/v1"); err != nil {
		t.Errorf("nil limiter should not fail: %v", err)
	}
	if !limiter.Allow("anything") {
		t.Error("nil limiter should always allow")
	}
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !limiter.Allow("http://tei.local/rerank") {
			t.Fatalf("request %d should pass with unlimited rate", i)
		}
	}
}

func TestLimiter_RateLimitPerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	endpoint := "http://tei.local/rerank"

	if err := limiter.Wait(ctx, endpoint); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst of 1 is consumed
	if limiter.Allow(endpoint) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Same host, different path shares the bucket
	if limiter.Allow("http://tei.local/embed") {
		t.Errorf("expected same host to share the bucket")
	}

	// Different host is independent
	if !limiter.Allow("http://localhost:11434") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	host := "slow.example"

	limiter.SetHostRate(host, 0.1, 1)

	if !limiter.Allow("https://" + host + "/v1") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("https://" + host + "/v1") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("https://fast.example") {
		t.Errorf("other host should pass")
	}
}

func TestHostOf(t *testing.T) {
	if got := hostOf("http://example.com/foo"); got != "example.com" {
		t.Errorf("expected example.com, got %s", got)
	}
	if got := hostOf("gemini"); got != "gemini" {
		t.Errorf("expected bare key to be kept, got %s", got)
	}
}
