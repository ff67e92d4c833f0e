package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var seen string
	handler := CorrelationID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		LoggerFromContext(r.Context()).Info().Msg("inside")
	}))

	req := httptest.NewRequest(http.MethodPost, "/jazz-night", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	require.Contains(t, buf.String(), `"request_id":"abc-123"`)
	require.Contains(t, buf.String(), `"method":"POST"`)
	require.Contains(t, buf.String(), `"route":"/{slug}"`)
}

func TestCorrelationID_ReplacesUnsafeHeader(t *testing.T) {
	handler := CorrelationID(zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "evil\nvalue <script>")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	got := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, got)
	require.NotContains(t, got, "script")
}

func TestLoggerFromContext_NoLogger(t *testing.T) {
	logger := LoggerFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.NotNil(t, logger)
	logger.Info().Msg("discarded")
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := CorrelationID(logger)(RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/picnic", nil))

	out := buf.String()
	require.Contains(t, out, `"level":"error"`)
	require.Contains(t, out, `"status":500`)
}

func TestRequestLogging_ProbesAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	handler := RequestLogging(logger)(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Empty(t, buf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jazz-night", nil))
	require.Contains(t, buf.String(), `"path":"/jazz-night"`)
}

func TestRecover(t *testing.T) {
	var recovered error
	handler := Recover(func(w http.ResponseWriter, r *http.Request, err error) {
		recovered = err
		w.WriteHeader(http.StatusInternalServerError)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.EqualError(t, recovered, "boom")
}

func TestRecover_StringPanic(t *testing.T) {
	var recovered error
	handler := Recover(func(w http.ResponseWriter, r *http.Request, err error) {
		recovered = err
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("plain string")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, strings.Contains(recovered.Error(), "plain string"))
}
