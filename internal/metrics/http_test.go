package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"static route", "/api/me", http.StatusOK, "/api/me"},
		{"uuid collapsed", "/api/admin/delete_user/6f1c2a9e-4b7d-4c1e-9a57-2f0b8c3d4e5f", http.StatusNoContent, "/api/admin/delete_user/{id}"},
		{"article file", "/files/articles/art_1.png", http.StatusOK, "/files/{object}"},
		{"not found", "/wp-login.php", http.StatusNotFound, unmatchedPath},
		{"wrong method", "/api/me", http.StatusMethodNotAllowed, unmatchedPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, routeLabel(tt.path, tt.status))
		})
	}
}

func TestMiddleware_CountsRequests(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/teapot", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")
	before := testutil.ToFloat64(counter)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, before, testutil.ToFloat64(counter))
}
