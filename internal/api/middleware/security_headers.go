package middleware

import (
	"net/http"
	"strings"
)

// contentSecurityPolicy allows no scripts; styles and images come from /static.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"style-src 'self'",
	"script-src 'none'",
	"img-src 'self' data:",
	"form-action 'self'",
	"frame-ancestors 'none'",
}, "; ")

var baseHeaders = map[string]string{
	"X-Frame-Options":         "DENY",
	"X-Content-Type-Options":  "nosniff",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": contentSecurityPolicy,
}

// SecurityHeaders sets the fixed response headers. Pages under /user and
// /admin show registrant data and are marked no-store. HSTS is sent only
// when requireHTTPS is set and the request arrived over TLS.
func SecurityHeaders(requireHTTPS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range baseHeaders {
				h.Set(name, value)
			}
			if privatePage(r.URL.Path) {
				h.Set("Cache-Control", "no-store")
			}
			if requireHTTPS && r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func privatePage(path string) bool {
	family, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return family == "user" || family == "admin"
}
