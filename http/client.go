// Package http provides the HTTP client used to talk to YouTube: per-host
// rate limiting, an in-memory cookie session and typed errors for rate
// limiting and non-2xx responses.
//
// The client makes exactly one attempt per call. Retrying is the caller's
// decision, see yttranscript/internal/retry.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Client wraps an HTTP client with rate limiting and session handling.
type Client struct {
	base        *http.Client
	config      *Config
	rateLimiter *RateLimiter
	session     *SessionManager
	log         zerolog.Logger
}

// Config holds HTTP client configuration.
type Config struct {
	// Timeout for individual HTTP requests
	Timeout time.Duration

	// MaxBodyBytes caps how much of a response body is read
	MaxBodyBytes int64

	// Session configures default headers
	Session SessionConfig

	// Rate limiter configuration
	RateLimiter RateLimiterConfig

	// Connection pool configuration
	Transport TransportConfig

	// Logger receives one debug line per request. Zero value discards.
	Logger zerolog.Logger
}

// TransportConfig configures the HTTP transport (connection pooling).
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	// Default: 10
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 4
	MaxIdleConnsPerHost int

	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	// Default: 90 seconds
	IdleConnTimeout time.Duration

	// ForceAttemptHTTP2 forces HTTP/2 for connections to servers that don't explicitly support it.
	// Default: true
	ForceAttemptHTTP2 bool
}

// DefaultMaxBodyBytes is the default response body cap (8 MiB).
const DefaultMaxBodyBytes = 8 << 20

// DefaultConfig returns sensible defaults for HTTP client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Session:      DefaultSessionConfig(),
		RateLimiter:  DefaultRateLimiterConfig(),
		Transport:    DefaultTransportConfig(),
		Logger:       zerolog.Nop(),
	}
}

// DefaultTransportConfig returns sensible defaults for HTTP transport configuration.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// New creates a new HTTP client with the given configuration.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	session, err := NewSessionManager(cfg.Session)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
		ForceAttemptHTTP2:   cfg.Transport.ForceAttemptHTTP2,
	}

	return &Client{
		base: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       session.Jar(),
		},
		config:      cfg,
		rateLimiter: NewRateLimiter(cfg.RateLimiter),
		session:     session,
		log:         cfg.Logger,
	}, nil
}

// Response represents an HTTP response with status code and body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Session returns the client's cookie and header session.
func (c *Client) Session() *SessionManager {
	return c.session
}

// StdClient returns a standard library client that shares this client's
// rate limiter, timeout and cookies. It is meant for SDKs that accept an
// *http.Client.
func (c *Client) StdClient() *http.Client {
	return &http.Client{
		Timeout:   c.base.Timeout,
		Jar:       c.base.Jar,
		Transport: &limitedTransport{limiter: c.rateLimiter, next: c.base.Transport},
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// PostJSON marshals payload and POSTs it with a JSON content type.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, headers map[string]string) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	merged := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		merged[k] = v
	}
	return c.Do(ctx, http.MethodPost, url, bytes.NewReader(body), merged)
}

// Do performs a single HTTP request.
//
// A 429, a 503, a 403 carrying rate limit headers or a redirect to the
// google.com/sorry interstitial yields *RateLimitError.
// Any other non-2xx status yields *HTTPError. Transport failures wrap
// ErrRequestFailed. Context cancellation is returned as the context error.
func (c *Client) Do(ctx context.Context, method, urlStr string, body io.Reader, headers map[string]string) (*Response, error) {
	if err := c.rateLimiter.Wait(ctx, urlStr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	for k, v := range c.session.GetHeaders() {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.base.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("host", extractDomain(urlStr)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("http request")

	if t := classifyThrottle(resp); t != notThrottled {
		return nil, &RateLimitError{
			StatusCode:     resp.StatusCode,
			RetryAfter:     parseRetryAfter(resp.Header),
			IsBotDetection: t == throttledBotCheck,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       snippet,
		}
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read response body: %v", ErrRequestFailed, err)
	}
	if int64(len(respBody)) > c.config.MaxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.config.MaxBodyBytes)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// parseRetryAfter extracts the Retry-After header value.
// Returns zero if the header is absent or malformed.
func parseRetryAfter(header http.Header) time.Duration {
	retryAfter := header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}

// Close closes idle connections.
func (c *Client) Close() error {
	c.base.CloseIdleConnections()
	return nil
}
