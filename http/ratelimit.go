package http

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter manages per-domain request rate limiting using token bucket algorithm.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	config   RateLimiterConfig
}

// RateLimiterConfig defines rate limiting behavior.
type RateLimiterConfig struct {
	// YouTubeRPS is requests per second for youtube.com hosts (default: 2.5)
	YouTubeRPS float64
	// DataAPIRPS is requests per second for googleapis.com (default: 1.0)
	DataAPIRPS float64
	// CustomRates maps exact host names to RPS values. 0 disables limiting.
	CustomRates map[string]float64
}

// DefaultRateLimiterConfig returns conservative defaults for YouTube endpoints.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		YouTubeRPS:  2.5,
		DataAPIRPS:  1.0,
		CustomRates: make(map[string]float64),
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.YouTubeRPS == 0 {
		cfg.YouTubeRPS = DefaultRateLimiterConfig().YouTubeRPS
	}
	if cfg.DataAPIRPS == 0 {
		cfg.DataAPIRPS = DefaultRateLimiterConfig().DataAPIRPS
	}
	if cfg.CustomRates == nil {
		cfg.CustomRates = make(map[string]float64)
	}

	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
	}
}

// Wait blocks until the limiter for the URL's host admits a request.
// Returns an error if the context is canceled or exceeded deadline.
func (rl *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	if rl == nil {
		return nil
	}
	limiter := rl.getLimiter(urlStr)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// getLimiter returns the rate limiter for a given URL, creating one if necessary.
func (rl *RateLimiter) getLimiter(urlStr string) *rate.Limiter {
	domain := extractDomain(urlStr)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rps := rl.getRPS(domain)
	if rps <= 0 {
		return nil
	}
	if limiter, ok := rl.limiters[domain]; ok {
		return limiter
	}

	// Burst of 1: the first request goes out immediately.
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	rl.limiters[domain] = limiter
	return limiter
}

// getRPS returns the requests per second for a given domain.
// Must be called with mutex held.
func (rl *RateLimiter) getRPS(domain string) float64 {
	if rps, ok := rl.config.CustomRates[domain]; ok {
		return rps
	}

	switch domain {
	case "www.googleapis.com", "googleapis.com", "youtube.googleapis.com":
		return rl.config.DataAPIRPS
	default:
		return rl.config.YouTubeRPS
	}
}

// extractDomain extracts the host name from a URL string, without port.
func extractDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

// limitedTransport applies a RateLimiter in front of another RoundTripper so
// that clients built by third-party SDKs share the same budget.
type limitedTransport struct {
	limiter *RateLimiter
	next    http.RoundTripper
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context(), req.URL.String()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
