package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DukeRupert/kaia/internal/auth"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/google/uuid"
)

type mockAuthenticator struct {
	accounts map[string]*domain.Account
	calls    int
}

func (m *mockAuthenticator) Authenticate(_ context.Context, token string) (*domain.Account, error) {
	m.calls++
	if a, ok := m.accounts[token]; ok {
		return a, nil
	}
	return nil, domain.Unauthorized("AccountService.Authenticate", "Session expired, please log in again")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuth() (*AuthMiddleware, *domain.Account, *domain.Account) {
	trader := &domain.Account{ID: uuid.New(), Email: "trader@kaia.test", Tier: domain.TierBasic}
	admin := &domain.Account{ID: uuid.New(), Email: "admin@kaia.test", Tier: domain.TierPlatinum, Admin: true}
	m := NewAuthMiddleware(&mockAuthenticator{accounts: map[string]*domain.Account{
		"trader-token": trader,
		"admin-token":  admin,
	}}, testLogger())
	return m, trader, admin
}

// captureAccount records the account seen by the final handler.
func captureAccount(seen **domain.Account) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = auth.GetAccountFromRequest(r)
		w.WriteHeader(http.StatusOK)
	})
}

// =============================================================================
// WithAccount
// =============================================================================

func TestWithAccount_NoHeader_ContinuesWithoutAccount(t *testing.T) {
	m, _, _ := newTestAuth()
	var seen *domain.Account

	req := httptest.NewRequest("GET", "/api/articles", nil)
	rec := httptest.NewRecorder()
	m.WithAccount(captureAccount(&seen)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if seen != nil {
		t.Errorf("expected no account in context, got %v", seen.Email)
	}
}

func TestWithAccount_ValidToken_SetsAccount(t *testing.T) {
	m, trader, _ := newTestAuth()
	var seen *domain.Account

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer trader-token")
	rec := httptest.NewRecorder()
	m.WithAccount(captureAccount(&seen)).ServeHTTP(rec, req)

	if seen == nil || seen.ID != trader.ID {
		t.Fatalf("expected trader in context, got %v", seen)
	}
}

func TestWithAccount_SchemeIsCaseInsensitive(t *testing.T) {
	m, trader, _ := newTestAuth()
	var seen *domain.Account

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "bearer trader-token")
	rec := httptest.NewRecorder()
	m.WithAccount(captureAccount(&seen)).ServeHTTP(rec, req)

	if seen == nil || seen.ID != trader.ID {
		t.Fatalf("expected trader in context, got %v", seen)
	}
}

func TestWithAccount_InvalidToken_Returns401(t *testing.T) {
	m, _, _ := newTestAuth()
	called := false

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	m.WithAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	if called {
		t.Error("handler should not run for an invalid token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	var body handlerError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body.Error.Message != "Session expired, please log in again" {
		t.Errorf("unexpected message %q", body.Error.Message)
	}
}

func TestWithAccount_OtherSchemesIgnored(t *testing.T) {
	m, _, _ := newTestAuth()
	mock := m.accounts.(*mockAuthenticator)
	var seen *domain.Account

	req := httptest.NewRequest("GET", "/api/articles", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	m.WithAccount(captureAccount(&seen)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if mock.calls != 0 {
		t.Errorf("expected no token lookup, got %d", mock.calls)
	}
}

// =============================================================================
// RequireAccount / RequireAdmin
// =============================================================================

func TestRequireAccount(t *testing.T) {
	m, _, _ := newTestAuth()
	protected := Stack(m.WithAccount, m.RequireAccount)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"valid token", "Bearer trader-token", http.StatusOK},
		{"malformed header", "Bearer", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	m, _, _ := newTestAuth()
	protected := Stack(m.WithAccount, m.RequireAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"non-admin", "Bearer trader-token", http.StatusForbidden},
		{"admin", "Bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestStack_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Stack(mw("outer"), mw("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("got %v, want %v", order, want)
		}
	}
}

type handlerError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
