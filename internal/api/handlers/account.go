package handlers

import (
	"errors"
	"net/http"

	"github.com/eventsignup/server/internal/api/middleware"
	"github.com/eventsignup/server/internal/api/render"
	"github.com/eventsignup/server/internal/audit"
	"github.com/eventsignup/server/internal/auth"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/eventsignup/server/internal/validation"
)

const (
	loginFailedMessage = "Invalid username or password"
	signupNotice       = "Your account has been created. You can log in now."
)

// AccountHandler serves login, logout and signup.
type AccountHandler struct {
	users         *users.Service
	jwt           *auth.JWTManager
	pipeline      *validation.Pipeline
	renderer      *render.Renderer
	audit         *audit.Logger
	responder     Responder
	secureCookies bool
}

func NewAccountHandler(usersService *users.Service, jwtManager *auth.JWTManager, pipeline *validation.Pipeline, renderer *render.Renderer, auditLogger *audit.Logger, secureCookies bool) *AccountHandler {
	return &AccountHandler{
		users:         usersService,
		jwt:           jwtManager,
		pipeline:      pipeline,
		renderer:      renderer,
		audit:         auditLogger,
		responder:     NewResponder(renderer),
		secureCookies: secureCookies,
	}
}

type loginView struct {
	Form    LoginForm
	Next    string
	Failure string
}

type signupView struct {
	Form SignupForm
}

// LoginPage handles GET /user/login. Visitors who already have a session
// are sent to the front page.
func (h *AccountHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.IdentityFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}

	page := render.Page{
		Title: "Log in",
		Data: loginView{
			Next: validation.SafeRedirect(r.URL.Query().Get("next"), ""),
		},
	}
	if r.URL.Query().Get("signup") == "1" {
		page.Notice = signupNotice
	}
	h.renderer.Render(w, r, http.StatusOK, "login", page)
}

// Login handles POST /user/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := decodeLoginForm(r)
	if err != nil {
		h.responder.BadRequest(w, r, err)
		return
	}
	next := validation.SafeRedirect(form.Next, "")

	errs, err := h.pipeline.Check(r.Context(), &form)
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}
	if len(errs) > 0 {
		h.renderLogin(w, r, http.StatusBadRequest, form, next, "", errs)
		return
	}

	user, err := h.users.Authenticate(r.Context(), form.Username, form.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		middleware.LoggerFromContext(r.Context()).Info().Str("username", form.Username).Msg("login failed")
		h.renderLogin(w, r, http.StatusUnauthorized, form, next, loginFailedMessage, nil)
		return
	}
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		h.responder.ServerError(w, r, err)
		return
	}

	token, err := h.jwt.Generate(user.Identity())
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		h.responder.ServerError(w, r, err)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	middleware.SetSessionCookie(w, token, h.jwt.Expiry(), h.secureCookies)
	middleware.LoggerFromContext(r.Context()).Info().Str("username", user.Username).Str("role", string(user.Role())).Msg("login succeeded")
	redirect(w, r, validation.SafeRedirect(next, "/"))
}

// Logout handles GET /user/logout and GET /admin/logout.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, h.secureCookies)
	redirect(w, r, "/")
}

// SignupPage handles GET /user/signup.
func (h *AccountHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "signup", render.Page{
		Title: "Sign up",
		Data:  signupView{},
	})
}

// Signup handles POST /user/signup. New accounts can manage events.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form, err := decodeSignupForm(r)
	if err != nil {
		h.responder.BadRequest(w, r, err)
		return
	}

	submitted := form
	submitted.Password = ""
	errs, err := h.pipeline.Check(r.Context(), &form, validation.UniqueUsername(h.users, &form.Username))
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}
	if len(errs) > 0 {
		h.renderer.Render(w, r, http.StatusBadRequest, "signup", render.Page{
			Title:  "Sign up",
			Errors: errs,
			Data:   signupView{Form: submitted},
		})
		return
	}

	if err := validation.Sanitize(&form); err != nil {
		h.responder.ServerError(w, r, err)
		return
	}

	user, err := h.users.Create(r.Context(), users.CreateParams{
		Name:     form.Name,
		Username: form.Username,
		Password: form.Password,
		Manager:  true,
	})
	if err != nil {
		h.audit.LogFromRequest(r, "user.signup", "user", "", "failure", map[string]string{"username": form.Username})
		h.responder.ServerError(w, r, err)
		return
	}

	h.audit.LogFromRequest(r, "user.signup", "user", user.ID, "success", map[string]string{"username": user.Username})
	redirect(w, r, middleware.LoginPath+"?signup=1")
}

func (h *AccountHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, form LoginForm, next, failure string, errs validation.Errors) {
	form.Password = ""
	h.renderer.Render(w, r, status, "login", render.Page{
		Title:  "Log in",
		Errors: errs,
		Data: loginView{
			Form:    form,
			Next:    next,
			Failure: failure,
		},
	})
}
