package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/eventsignup/server/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader is read from the proxy and echoed on every response.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// Inbound ids end up in logs and on the error page, so only plain tokens are
// accepted.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// CorrelationID tags the request with an id (the proxy's, or a fresh UUID)
// and stores a logger carrying that id, the method and the route in the
// context.
func CorrelationID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if !validRequestID.MatchString(requestID) {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			scoped := logger.With().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("route", metrics.RouteLabel(r.URL.Path)).
				Logger()

			ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
			next.ServeHTTP(w, r.WithContext(scoped.WithContext(ctx)))
		})
	}
}

// GetRequestID returns "" outside CorrelationID.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// LoggerFromContext returns the request logger, or a no-op logger when the
// request did not pass through CorrelationID.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	noop := zerolog.Nop()
	return &noop
}
