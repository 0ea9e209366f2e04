package http

import (
	"net/http"
	"strings"
)

// throttle classifies a response that asks the client to back off.
type throttle int

const (
	notThrottled throttle = iota
	// throttledRate is plain rate limiting: 429 or 503.
	throttledRate
	// throttledBotCheck is YouTube's anti-bot response: the google.com/sorry
	// interstitial reached by redirect, or a 403 that carries rate limit
	// headers.
	throttledBotCheck
)

// classifyThrottle inspects the final response of a request, after redirects.
// A bare 403 is a real refusal and is not treated as throttling.
func classifyThrottle(resp *http.Response) throttle {
	if isSorryPage(resp) {
		return throttledBotCheck
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return throttledRate
	case http.StatusForbidden:
		if hasRateLimitHeaders(resp.Header) {
			return throttledBotCheck
		}
	}
	return notThrottled
}

func isSorryPage(resp *http.Response) bool {
	if resp.Request == nil || resp.Request.URL == nil {
		return false
	}
	u := resp.Request.URL
	return strings.HasSuffix(u.Hostname(), "google.com") && strings.HasPrefix(u.Path, "/sorry")
}

func hasRateLimitHeaders(header http.Header) bool {
	if header.Get("Retry-After") != "" || header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return header.Get("X-RateLimit-Reset") != "" || header.Get("X-RateLimit-Limit") != ""
}
