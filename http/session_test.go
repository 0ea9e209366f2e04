package http

import (
	"testing"
)

func TestNewSessionManagerDefaults(t *testing.T) {
	sm, err := NewSessionManager(SessionConfig{})
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	headers := sm.GetHeaders()
	if headers["User-Agent"] != DefaultSessionConfig().UserAgent {
		t.Errorf("expected default User-Agent, got %q", headers["User-Agent"])
	}
	if headers["Accept-Language"] != "en-US" {
		t.Errorf("expected Accept-Language en-US, got %q", headers["Accept-Language"])
	}
	if _, ok := headers["Referer"]; ok {
		t.Error("expected no Referer when RefererURL is empty")
	}
}

func TestSessionManagerHeaders(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.HeadersToAdd["X-Custom"] = "value"
	sm, err := NewSessionManager(cfg)
	if err != nil {
		t.Fatal(err)
	}

	headers := sm.GetHeaders()
	if headers["Referer"] != "https://www.youtube.com" {
		t.Errorf("expected Referer, got %q", headers["Referer"])
	}
	if headers["X-Custom"] != "value" {
		t.Errorf("expected custom header, got %q", headers["X-Custom"])
	}

	// The returned map is a copy.
	headers["X-Custom"] = "changed"
	if sm.GetHeaders()["X-Custom"] != "value" {
		t.Error("mutating returned headers changed the session")
	}
}

func TestSessionManagerCookies(t *testing.T) {
	sm, err := NewSessionManager(DefaultSessionConfig())
	if err != nil {
		t.Fatal(err)
	}

	if err := sm.SetCookie("https://www.youtube.com", "CONSENT", "YES+abc"); err != nil {
		t.Fatalf("SetCookie failed: %v", err)
	}

	cookies := sm.Cookies("https://www.youtube.com/watch?v=abc")
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].Name != "CONSENT" || cookies[0].Value != "YES+abc" {
		t.Errorf("unexpected cookie %s=%s", cookies[0].Name, cookies[0].Value)
	}

	if other := sm.Cookies("https://example.com/"); len(other) != 0 {
		t.Errorf("cookie leaked to another host: %v", other)
	}
}

func TestSessionManagerInvalidCookieURL(t *testing.T) {
	sm, err := NewSessionManager(DefaultSessionConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := sm.SetCookie("://bad", "a", "b"); err == nil {
		t.Error("expected error for invalid URL")
	}
	if cookies := sm.Cookies("://bad"); cookies != nil {
		t.Errorf("expected nil cookies, got %v", cookies)
	}
}

func TestSessionManagerCookieRejectedByJar(t *testing.T) {
	sm, err := NewSessionManager(DefaultSessionConfig())
	if err != nil {
		t.Fatal(err)
	}
	// The jar only keeps cookies for http and https URLs.
	if err := sm.SetCookie("ftp://www.youtube.com", "CONSENT", "YES+abc"); err == nil {
		t.Error("expected error when the jar drops the cookie")
	}
}
