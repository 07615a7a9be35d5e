package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"zentrack/internal/api"
	"zentrack/internal/api/memory"
	"zentrack/internal/config"
	applog "zentrack/internal/log"
)

func testConfig() config.Config {
	return config.Config{
		Port:               "0",
		APIBaseURL:         "http://localhost:8000",
		Backend:            "memory",
		AuthLoginURL:       "https://auth.example.com/",
		AppBaseURL:         "http://app.example.com",
		RateLimitPerMinute: 10000,
		LogLevel:           "error",
	}
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError, Component: applog.ComponentApp})
}

// newTestServer builds a server over the given backend. Call shutdown when
// done to stop background goroutines.
func newTestServer(t *testing.T, backend api.Backend) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(), backend, quietLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return srv
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, memory.New())

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	for _, header := range []string{
		"Content-Security-Policy",
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
	} {
		if rec.Header().Get(header) == "" {
			t.Errorf("missing security header %s", header)
		}
	}
}

func TestLoginPageRendersProviderURL(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "auth.example.com") {
		t.Error("login page does not reference the identity provider URL")
	}
	if !strings.Contains(string(body), "app.example.com") {
		t.Error("login page redirect URL does not reference the app base URL")
	}
}

// TestProviderReturnPathServesHandshakeScript walks the sign-in round trip:
// the page the provider redirects back to must carry the script that lifts
// the session id out of the URL fragment, or the handshake can never fire.
func TestProviderReturnPathServesHandshakeScript(t *testing.T) {
	cfg := testConfig()
	srv := newTestServer(t, memory.New())

	redirect := cfg.LoginRedirectURL()
	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse %q: %v", redirect, err)
	}
	returnURL, err := url.Parse(u.Query().Get("redirect"))
	if err != nil || returnURL.Path == "" {
		t.Fatalf("provider URL %q carries no usable return address", redirect)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, returnURL.Path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status = %d, want 200", returnURL.Path, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "handshake.js") {
		t.Errorf("provider return page %s does not load the fragment handshake script", returnURL.Path)
	}

	// A cookieless visit to /dashboard bounces to /login; the fragment
	// survives that hop in the browser, so /login must lift it too.
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("GET /dashboard without cookie: status = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if !strings.Contains(rec.Body.String(), "handshake.js") {
		t.Error("login page does not load the fragment handshake script")
	}
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	srv, err := NewServer(cfg, memory.New(), quietLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		srv.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}

// Reads never count against the mutation budget; only writes do.
func TestRateLimitIgnoresReads(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	srv, err := NewServer(cfg, memory.New(), quietLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	// The budget is still intact for the first mutation.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusTooManyRequests {
		t.Error("reads consumed the mutation budget")
	}
}
