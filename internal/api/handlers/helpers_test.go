package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/eventsignup/server/internal/api/render"
	"github.com/eventsignup/server/internal/audit"
	"github.com/eventsignup/server/internal/auth"
	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/eventsignup/server/internal/storage/sqlite"
	"github.com/eventsignup/server/internal/validation"
	"github.com/eventsignup/server/web"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	store         *sqlite.Store
	events        *events.Service
	registrations *registrations.Service
	users         *users.Service
	pipeline      *validation.Pipeline
	renderer      *render.Renderer
	audit         *audit.Logger
	jwt           *auth.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	renderer, err := render.New(web.Templates(), logger)
	require.NoError(t, err)

	return &testEnv{
		store:         store,
		events:        events.NewService(store.Events(), logger),
		registrations: registrations.NewService(store.Registrations(), logger),
		users:         users.NewService(store.Users(), logger, users.WithBcryptCost(bcrypt.MinCost)),
		pipeline:      validation.New(),
		renderer:      renderer,
		audit:         audit.NewLogger(logger),
		jwt:           auth.NewJWTManager("handler-test-secret", time.Hour, "eventsignup-test"),
	}
}

func (e *testEnv) public() *PublicHandler {
	return NewPublicHandler(e.events, e.registrations, e.pipeline, e.renderer)
}

func (e *testEnv) manage(family Family) *ManageHandler {
	return NewManageHandler(family, e.events, e.registrations, e.pipeline, e.renderer, e.audit)
}

func (e *testEnv) account() *AccountHandler {
	return NewAccountHandler(e.users, e.jwt, e.pipeline, e.renderer, e.audit, false)
}

func (e *testEnv) createEvent(t *testing.T, name, description string) *events.Event {
	t.Helper()
	event, err := e.events.Create(context.Background(), events.CreateParams{Name: name, Description: description})
	require.NoError(t, err)
	return event
}

func (e *testEnv) registrationsFor(t *testing.T, eventID string) []registrations.Registration {
	t.Helper()
	items, err := e.registrations.ListByEvent(context.Background(), eventID)
	require.NoError(t, err)
	return items
}

func getRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withSlug(req *http.Request, slug string) *http.Request {
	req.SetPathValue("slug", slug)
	return req
}

func withIdentity(req *http.Request, identity auth.Identity) *http.Request {
	return req.WithContext(auth.ContextWithIdentity(req.Context(), &identity))
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return doc
}

func fieldErrors(doc *goquery.Document) []string {
	var out []string
	doc.Find("p.error").Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
