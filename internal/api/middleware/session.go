package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/eventsignup/server/internal/auth"
)

const SessionCookieName = "eventsignup_session"

// Session puts the signed-in user on the request context when the session
// cookie verifies. A missing or bad cookie leaves the request anonymous.
func Session(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity := sessionIdentity(r, tokens); identity != nil {
				r = r.WithContext(auth.ContextWithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionIdentity(r *http.Request, tokens *auth.JWTManager) *auth.Identity {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}
	claims, err := tokens.Validate(cookie.Value)
	if err != nil {
		if !errors.Is(err, auth.ErrMissingToken) {
			LoggerFromContext(r.Context()).Debug().Err(err).Msg("ignoring session cookie")
		}
		return nil
	}
	return claims.Identity()
}

func SetSessionCookie(w http.ResponseWriter, token string, expiry time.Duration, secure bool) {
	http.SetCookie(w, sessionCookie(token, int(expiry.Seconds()), secure))
}

// ClearSessionCookie expires the cookie, signing the user out.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, sessionCookie("", -1, secure))
}

func sessionCookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
