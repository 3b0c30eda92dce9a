package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func secured(isSecure bool, req *http.Request) *httptest.ResponseRecorder {
	mw := NewSecurityHeadersMiddleware(isSecure)
	rec := httptest.NewRecorder()
	mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersMiddleware_SetsAllHeaders(t *testing.T) {
	rec := secured(false, httptest.NewRequest("GET", "/api/articles", nil))

	want := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": apiCSP,
		"Permissions-Policy":      "geolocation=(), microphone=(), camera=()",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestSecurityHeadersMiddleware_HSTS(t *testing.T) {
	tests := []struct {
		name     string
		isSecure bool
		want     string
	}{
		{"production", true, "max-age=31536000; includeSubDomains"},
		{"development", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := secured(tt.isSecure, httptest.NewRequest("GET", "/", nil))
			if got := rec.Header().Get("Strict-Transport-Security"); got != tt.want {
				t.Errorf("HSTS = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeadersMiddleware_NoStoreForAuthenticatedRequests(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := secured(false, req)

	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}

	rec = secured(false, httptest.NewRequest("GET", "/api/articles", nil))
	if got := rec.Header().Get("Cache-Control"); got != "" {
		t.Errorf("public responses should stay cacheable, got %q", got)
	}
}

func TestSecurityHeadersMiddleware_PassesThroughRequests(t *testing.T) {
	called := false
	mw := NewSecurityHeadersMiddleware(true)
	rec := httptest.NewRecorder()
	mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})).ServeHTTP(rec, httptest.NewRequest("POST", "/api/register", nil))

	if !called {
		t.Error("handler should have been called")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}
