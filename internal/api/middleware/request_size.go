package middleware

import "net/http"

// FormMaxBodySize fits the largest form: a 1000 character description in
// multi-byte text plus the CSRF token.
const FormMaxBodySize int64 = 64 << 10

// RequestSize caps request bodies at maxBytes. Reads past the cap fail and
// the form handlers answer 400. Bodiless methods pass through untouched.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				if r.Body != nil && r.Body != http.NoBody {
					r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
