package middleware

import (
	"net/http"
	"net/url"

	"github.com/eventsignup/server/internal/auth"
)

const LoginPath = "/user/login"

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IdentityFromContext(r.Context()) == nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole redirects to the login page unless the identity carries one of
// the roles. Roles are hierarchical, so RoleManager also admits admins.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.IdentityFromContext(r.Context())
			if identity == nil || !auth.HasRole(string(identity.Role), roles...) {
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Path
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		// The form body is lost on redirect; send the user back to the listing.
		next = familyRoot(r.URL.Path)
	}
	target := LoginPath + "?next=" + url.QueryEscape(next)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func familyRoot(path string) string {
	for _, root := range []string{"/admin", "/user"} {
		if path == root || len(path) > len(root) && path[:len(root)+1] == root+"/" {
			return root
		}
	}
	return "/"
}
