package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})

	if rl.config.YouTubeRPS != 2.5 {
		t.Errorf("expected YouTubeRPS 2.5, got %v", rl.config.YouTubeRPS)
	}
	if rl.config.DataAPIRPS != 1.0 {
		t.Errorf("expected DataAPIRPS 1.0, got %v", rl.config.DataAPIRPS)
	}
	if rl.config.CustomRates == nil {
		t.Error("expected CustomRates to be initialized")
	}
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{YouTubeRPS: 10.0})

	ctx := context.Background()
	url := "https://www.youtube.com/watch?v=abc"

	// First request goes out on the initial burst token.
	start := time.Now()
	if err := rl.Wait(ctx, url); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first request took %v, expected no wait", elapsed)
	}

	start = time.Now()
	if err := rl.Wait(ctx, url); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second request took %v, expected ~100ms", elapsed)
	}
}

func TestRateLimiterContextCanceled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{YouTubeRPS: 0.5})

	ctx, cancel := context.WithCancel(context.Background())
	url := "https://www.youtube.com/watch?v=abc"

	if err := rl.Wait(ctx, url); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	cancel()
	if err := rl.Wait(ctx, url); err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestRateLimiterPerDomain(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{YouTubeRPS: 0.5, DataAPIRPS: 0.5})
	ctx := context.Background()

	// Each host has its own bucket, so both first requests are immediate.
	start := time.Now()
	if err := rl.Wait(ctx, "https://www.youtube.com/watch"); err != nil {
		t.Fatal(err)
	}
	if err := rl.Wait(ctx, "https://www.googleapis.com/youtube/v3/captions"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("independent domains should not wait on each other, took %v", elapsed)
	}
}

func TestRateLimiterGetRPS(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		YouTubeRPS:  3,
		DataAPIRPS:  1,
		CustomRates: map[string]float64{"example.com": 7},
	})

	tests := []struct {
		domain string
		want   float64
	}{
		{"www.youtube.com", 3},
		{"youtube.com", 3},
		{"www.googleapis.com", 1},
		{"youtube.googleapis.com", 1},
		{"example.com", 7},
	}
	for _, tt := range tests {
		if got := rl.getRPS(tt.domain); got != tt.want {
			t.Errorf("getRPS(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestRateLimiterDisabledForDomain(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		YouTubeRPS:  0.1,
		CustomRates: map[string]float64{"127.0.0.1": 0},
	})

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := rl.Wait(ctx, "http://127.0.0.1:8080/x"); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("disabled limiter should not wait, took %v", elapsed)
	}
}

func TestRateLimiterNil(t *testing.T) {
	var rl *RateLimiter
	if err := rl.Wait(context.Background(), "https://www.youtube.com"); err != nil {
		t.Errorf("nil limiter should admit everything, got %v", err)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc", "www.youtube.com"},
		{"http://127.0.0.1:8080/path", "127.0.0.1"},
		{"not a url", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := extractDomain(tt.url); got != tt.want {
			t.Errorf("extractDomain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestLimitedTransportCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	rl := NewRateLimiter(RateLimiterConfig{CustomRates: map[string]float64{"127.0.0.1": 0.1}})
	tr := &limitedTransport{limiter: rl, next: http.DefaultTransport}

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("first request should pass: %v", err)
	}
	resp.Body.Close()

	cancel()
	req, _ = http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if _, err := tr.RoundTrip(req); err == nil || !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
