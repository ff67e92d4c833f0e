package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "/"},
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/jazz-night", "/{slug}"},
		{"/jazz-night/thanks", "/{slug}/thanks"},
		{"/user", "/user"},
		{"/user/login", "/user/login"},
		{"/user/jazz-night", "/user/{slug}"},
		{"/admin/delete", "/admin/delete"},
		{"/admin/jazz-night", "/admin/{slug}"},
		{"/static/style.css", "/static/{file}"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, RouteLabel(tt.input))
		})
	}
}

func TestHTTPMiddlewareCounts(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/{slug}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/some-event", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestHandlerExposesRegistry(t *testing.T) {
	Init("test", "abc123", "2026-01-01")
	DomainOperations.WithLabelValues("event", "create", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "eventsignup_domain_operations_total")
	require.Contains(t, rec.Body.String(), "eventsignup_app_info")
}
