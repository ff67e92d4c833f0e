package middleware

import (
	"net/http"
	"strings"

	"github.com/eventsignup/server/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/eventsignup/server/internal/api"

// eventSlugKey tags spans that address a single event.
const eventSlugKey = attribute.Key("eventsignup.event.slug")

// Tracing opens one server span per request and continues an incoming W3C
// traceparent. The span is named by method and collapsed route.
func Tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		route := metrics.RouteLabel(r.URL.Path)

		attrs := []attribute.KeyValue{
			semconv.HTTPMethod(r.Method),
			semconv.HTTPURL(r.URL.String()),
			semconv.HTTPRoute(route),
			semconv.HTTPScheme(requestScheme(r)),
			semconv.NetHostName(r.Host),
			attribute.String("http.user_agent", r.UserAgent()),
		}
		if slug := slugFromPath(r.URL.Path, route); slug != "" {
			attrs = append(attrs, eventSlugKey.String(slug))
		}
		if id := GetRequestID(ctx); id != "" {
			attrs = append(attrs, attribute.String("request_id", id))
		}

		ctx, span := tracer.Start(ctx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
			return
		}
		span.SetStatus(codes.Ok, "")
	})
}

// slugFromPath returns the path segment that RouteLabel replaced with {slug}.
func slugFromPath(path, route string) string {
	labels := strings.Split(strings.Trim(route, "/"), "/")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(labels) != len(segments) {
		return ""
	}
	for i, label := range labels {
		if label == "{slug}" {
			return segments[i]
		}
	}
	return ""
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
