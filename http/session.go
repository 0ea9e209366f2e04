package http

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// SessionManager holds the cookies and default headers for one invocation.
// Cookies live only in memory.
type SessionManager struct {
	jar    http.CookieJar
	mu     sync.RWMutex
	config SessionConfig
}

// SessionConfig configures session behavior.
type SessionConfig struct {
	// UserAgent for HTTP requests
	UserAgent string

	// AcceptLanguage selects the language of YouTube's HTML and error messages
	AcceptLanguage string

	// RefererURL to use in requests (helps with YouTube)
	RefererURL string

	// HeadersToAdd are custom headers to include in all requests
	HeadersToAdd map[string]string
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US",
		RefererURL:     "https://www.youtube.com",
		HeadersToAdd:   make(map[string]string),
	}
}

// NewSessionManager creates a new session manager.
func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	defaults := DefaultSessionConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = defaults.AcceptLanguage
	}
	if cfg.HeadersToAdd == nil {
		cfg.HeadersToAdd = make(map[string]string)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &SessionManager{
		jar:    jar,
		config: cfg,
	}, nil
}

// Jar returns the session cookie jar.
func (sm *SessionManager) Jar() http.CookieJar {
	return sm.jar
}

// GetHeaders returns the headers to add to requests.
func (sm *SessionManager) GetHeaders() map[string]string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	headers := make(map[string]string, len(sm.config.HeadersToAdd)+3)
	for k, v := range sm.config.HeadersToAdd {
		headers[k] = v
	}

	headers["User-Agent"] = sm.config.UserAgent
	if sm.config.AcceptLanguage != "" {
		headers["Accept-Language"] = sm.config.AcceptLanguage
	}
	if sm.config.RefererURL != "" {
		headers["Referer"] = sm.config.RefererURL
	}

	return headers
}

// SetCookie stores a cookie for the host of rawURL. It fails if the jar
// would not send the cookie back to rawURL.
func (sm *SessionManager) SetCookie(rawURL, name, value string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse cookie url: %w", err)
	}
	sm.jar.SetCookies(u, []*http.Cookie{{
		Name:   name,
		Value:  value,
		Path:   "/",
		Domain: u.Hostname(),
	}})
	for _, c := range sm.Cookies(rawURL) {
		if c.Name == name && c.Value == value {
			return nil
		}
	}
	return fmt.Errorf("cookie %s rejected for %s", name, rawURL)
}

// Cookies returns the cookies that would be sent to rawURL.
func (sm *SessionManager) Cookies(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return sm.jar.Cookies(u)
}
