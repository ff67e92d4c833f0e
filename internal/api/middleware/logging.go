package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RequestLogging writes one access line per request. Inside CorrelationID the
// line goes through the request-scoped logger so it carries request_id and
// route; otherwise fallback is used.
func RequestLogging(fallback zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			logger := zerolog.Ctx(r.Context())
			if logger.GetLevel() == zerolog.Disabled {
				logger = &fallback
			}

			status := rec.Status()
			level := zerolog.InfoLevel
			switch {
			case status >= http.StatusInternalServerError:
				level = zerolog.ErrorLevel
			case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
				level = zerolog.DebugLevel
			}

			logger.WithLevel(level).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(started)).
				Msg("request")
		})
	}
}
