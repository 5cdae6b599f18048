// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDWithLogging(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	})

	handler := RequestIDWithLogging()(inner)

	t.Run("generates id when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/summary", nil))

		got := rec.Header().Get("X-Request-ID")
		if got == "" {
			t.Fatal("expected generated X-Request-ID header")
		}
		if seen != got {
			t.Errorf("handler saw %q, response carries %q", seen, got)
		}
	})

	t.Run("preserves caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/summary", nil)
		req.Header.Set("X-Request-ID", "caller-supplied")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "caller-supplied" {
			t.Errorf("expected caller-supplied id, got %q", got)
		}
	})
}

func TestAPISecurityHeaders(t *testing.T) {
	handler := APISecurityHeaders()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/summary", nil))

	expected := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, want := range expected {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("expected no HSTS over plain HTTP, got %q", got)
	}
}

func TestAPISecurityHeadersHSTSBehindProxy(t *testing.T) {
	handler := APISecurityHeaders()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/summary", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("expected HSTS header when X-Forwarded-Proto is https")
	}
}

func TestRateLimitCustom(t *testing.T) {
	m := NewMiddleware(DefaultMiddlewareConfig())
	handler := m.RateLimitCustom(RateLimitConfig{Requests: 2, Window: time.Minute})(okHandler())

	var lastStatus int
	var lastBody []byte
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/summary", nil)
		req.RemoteAddr = "10.1.2.3:4000"

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastStatus = rec.Code
		lastBody = rec.Body.Bytes()
	}

	if lastStatus != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request, got %d", lastStatus)
	}

	var resp APIResponse
	if err := json.Unmarshal(lastBody, &resp); err != nil {
		t.Fatalf("failed to decode rate limit response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("expected %s, got %+v", ErrCodeTooManyRequests, resp.Error)
	}
}

func TestCORSPreflight(t *testing.T) {
	config := DefaultMiddlewareConfig()
	config.CORSAllowedOrigins = []string{"https://dashboard.example.com"}

	m := NewMiddleware(config)
	handler := m.CORS()(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stats/summary", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example.com" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
}

func TestStatusResponseWriterCapturesCode(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &statusResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	ww.WriteHeader(http.StatusNotFound)

	if ww.statusCode != http.StatusNotFound {
		t.Errorf("expected captured 404, got %d", ww.statusCode)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected underlying 404, got %d", rec.Code)
	}
}

func TestRoutePatternFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/artists/42", nil)
	if got := routePattern(req); got != "/api/v1/artists/42" {
		t.Errorf("expected raw path fallback, got %q", got)
	}
}
