package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
)

// CSRFFormField is the hidden input that carries the token.
const CSRFFormField = "gorilla.csrf.Token"

// CSRFProtection protects every unsafe method with a double-submit token.
// Forms embed the token through csrf.TemplateField; the matching cookie is
// _gorilla_csrf.
//
// When secure is false the request is marked as plain HTTP, otherwise the
// library's Referer check rejects every form post in local development.
func CSRFProtection(authKey []byte, secure bool, failure http.Handler) func(http.Handler) http.Handler {
	if failure == nil {
		failure = http.HandlerFunc(csrfErrorHandler)
	}
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName(CSRFFormField),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(failure),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	LoggerFromContext(r.Context()).Warn().
		Err(csrf.FailureReason(r)).
		Str("path", r.URL.Path).
		Msg("csrf validation failed")
	http.Error(w, "Forbidden: the form has expired, please go back and try again.", http.StatusForbidden)
}
