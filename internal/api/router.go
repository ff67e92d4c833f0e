package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/eventsignup/server/internal/api/handlers"
	"github.com/eventsignup/server/internal/api/middleware"
	"github.com/eventsignup/server/internal/api/render"
	"github.com/eventsignup/server/internal/audit"
	"github.com/eventsignup/server/internal/auth"
	"github.com/eventsignup/server/internal/config"
	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/eventsignup/server/internal/storage"
	"github.com/eventsignup/server/internal/validation"
	"github.com/eventsignup/server/web"
	"github.com/rs/zerolog"
)

// Dependencies are the long-lived objects the router wires into handlers.
type Dependencies struct {
	Config    config.Config
	Logger    zerolog.Logger
	Store     storage.Store
	Version   string
	GitCommit string

	// UserOptions tune the account service; tests lower the bcrypt cost.
	UserOptions []users.Option
}

// NewRouter builds the full HTTP handler: the middleware chain around a
// dispatcher that picks the public, user or admin mux by the first path
// segment.
func NewRouter(deps Dependencies) (http.Handler, error) {
	cfg := deps.Config
	logger := deps.Logger

	renderer, err := render.New(web.Templates(), logger)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	sessionKey, err := auth.DeriveSessionKey([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	csrfKey := []byte(cfg.Auth.CSRFKey)
	if len(csrfKey) == 0 {
		if csrfKey, err = auth.DeriveCSRFKey([]byte(cfg.Auth.JWTSecret)); err != nil {
			return nil, fmt.Errorf("derive csrf key: %w", err)
		}
	}
	jwtManager := auth.NewJWTManager(string(sessionKey), cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	eventsService := events.NewService(deps.Store.Events(), logger)
	registrationsService := registrations.NewService(deps.Store.Registrations(), logger)
	usersService := users.NewService(deps.Store.Users(), logger, deps.UserOptions...)
	pipeline := validation.New()
	auditLogger := audit.NewLogger(logger, audit.WithClientIP(func(r *http.Request) string {
		return middleware.ClientIP(r, cfg.RateLimit.TrustedProxyCIDRs)
	}))

	responder := handlers.NewResponder(renderer)
	limit := middleware.RateLimit(cfg.RateLimit)
	loginLimit := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierLogin)(limit(h))
	}

	public := handlers.NewPublicHandler(eventsService, registrationsService, pipeline, renderer)
	account := handlers.NewAccountHandler(usersService, jwtManager, pipeline, renderer, auditLogger, cfg.Server.SecureCookies)
	health := handlers.NewHealthChecker(deps.Store, deps.Version, deps.GitCommit)

	publicMux := http.NewServeMux()
	publicMux.Handle("/{$}", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(public.List),
	}))
	publicMux.Handle("/{slug}", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(public.Get),
		http.MethodPost: http.HandlerFunc(public.Register),
	}))
	publicMux.Handle("/{slug}/thanks", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(public.Thanks),
	}))
	publicMux.Handle("/healthz", handlers.Healthz())
	publicMux.Handle("/readyz", health.Readyz())
	publicMux.Handle("/metrics", metrics.Handler())
	publicMux.Handle("/robots.txt", web.RobotsTxtHandler())
	publicMux.Handle("/", http.HandlerFunc(responder.NotFound))

	userMux := manageMux(handlers.NewManageHandler(handlers.UserFamily, eventsService, registrationsService, pipeline, renderer, auditLogger), responder)
	userMux.Handle("/user/login", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(account.LoginPage),
		http.MethodPost: loginLimit(account.Login),
	}))
	userMux.Handle("/user/logout", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(account.Logout),
	}))
	userMux.Handle("/user/signup", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(account.SignupPage),
		http.MethodPost: loginLimit(account.Signup),
	}))

	admin := handlers.NewManageHandler(handlers.AdminFamily, eventsService, registrationsService, pipeline, renderer, auditLogger)
	adminMux := manageMux(admin, responder)
	adminMux.Handle("/admin/delete", middleware.RequireLogin(middleware.RequireRole(auth.RoleAdmin)(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(admin.Delete),
	}))))
	adminMux.Handle("/admin/logout", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(account.Logout),
	}))

	static := web.StaticHandler()
	dispatch := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch firstSegment(r.URL.Path) {
		case "user":
			userMux.ServeHTTP(w, r)
		case "admin":
			adminMux.ServeHTTP(w, r)
		case "static":
			static.ServeHTTP(w, r)
		default:
			publicMux.ServeHTTP(w, r)
		}
	})

	var handler http.Handler = dispatch
	handler = middleware.Session(jwtManager)(handler)
	handler = middleware.CSRFProtection(csrfKey, cfg.Server.SecureCookies, nil)(handler)
	handler = limit(handler)
	handler = middleware.RequestSize(middleware.FormMaxBodySize)(handler)
	handler = middleware.SecurityHeaders(cfg.Server.SecureCookies)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.Recover(responder.Panic)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, nil
}

// manageMux registers the listing and edit routes shared by the user and
// admin areas, all behind the family's role.
func manageMux(h *handlers.ManageHandler, responder handlers.Responder) *http.ServeMux {
	family := h.Family()
	hasRole := middleware.RequireRole(family.Role)
	require := func(next http.Handler) http.Handler {
		return middleware.RequireLogin(hasRole(next))
	}

	mux := http.NewServeMux()
	mux.Handle(family.BasePath, require(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(h.List),
		http.MethodPost: http.HandlerFunc(h.Create),
	})))
	mux.Handle(family.BasePath+"/{slug}", require(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(h.Edit),
		http.MethodPost: http.HandlerFunc(h.Update),
	})))
	mux.Handle("/", http.HandlerFunc(responder.NotFound))
	return mux
}

func firstSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodHead {
			if handler, ok := handlers[http.MethodGet]; ok {
				handler.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
