package handlers

import (
	"errors"
	"net/http"

	"github.com/eventsignup/server/internal/api/pagination"
	"github.com/eventsignup/server/internal/api/render"
	"github.com/eventsignup/server/internal/auth"
	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/eventsignup/server/internal/validation"
)

// PublicHandler serves the event listing, event pages and registration.
type PublicHandler struct {
	events        *events.Service
	registrations *registrations.Service
	pipeline      *validation.Pipeline
	renderer      *render.Renderer
	responder     Responder
}

func NewPublicHandler(eventsService *events.Service, registrationsService *registrations.Service, pipeline *validation.Pipeline, renderer *render.Renderer) *PublicHandler {
	return &PublicHandler{
		events:        eventsService,
		registrations: registrationsService,
		pipeline:      pipeline,
		renderer:      renderer,
		responder:     NewResponder(renderer),
	}
}

type eventListView struct {
	Events []events.Event
	Links  pagination.Links
}

type eventView struct {
	Event         *events.Event
	Registrations []registrations.Registration
	Form          RegistrationForm
	NameLocked    bool
}

type thanksView struct {
	Event  *events.Event
	Events []events.Event
}

// List handles GET /.
func (h *PublicHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageOrFirst(r.URL.Query().Get("page"))
	result, err := h.events.List(r.Context(), page, events.DefaultPageSize)
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "events", render.Page{
		Title: "Events",
		Data: eventListView{
			Events: result.Events,
			Links:  pagination.NewLinks("/", result.Page, result.HasPrev, result.HasNext),
		},
	})
}

// Get handles GET /{slug}.
func (h *PublicHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	form := RegistrationForm{}
	identity := auth.IdentityFromContext(r.Context())
	if identity != nil {
		form.Name = identity.Name
	}
	h.renderEvent(w, r, http.StatusOK, event, form, nil)
}

// Register handles POST /{slug}. Signed-in visitors register under their
// account name; the name field is ignored for them.
func (h *PublicHandler) Register(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	form, err := decodeRegistrationForm(r)
	if err != nil {
		h.responder.BadRequest(w, r, err)
		return
	}
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		form.Name = identity.Name
	}

	submitted := form
	errs, err := h.pipeline.Check(r.Context(), &form)
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}
	if len(errs) > 0 {
		h.renderEvent(w, r, http.StatusBadRequest, event, submitted, errs)
		return
	}

	if err := validation.Sanitize(&form); err != nil {
		h.responder.ServerError(w, r, err)
		return
	}
	if _, err := h.registrations.Register(r.Context(), registrations.RegisterParams{
		EventID: event.ID,
		Name:    form.Name,
		Comment: form.Comment,
	}); err != nil {
		h.responder.ServerError(w, r, err)
		return
	}

	redirect(w, r, "/"+event.Slug+"/thanks")
}

// Thanks handles GET /{slug}/thanks.
func (h *PublicHandler) Thanks(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	result, err := h.events.List(r.Context(), 1, events.DefaultPageSize)
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}
	others := make([]events.Event, 0, len(result.Events))
	for _, other := range result.Events {
		if other.ID != event.ID {
			others = append(others, other)
		}
	}

	h.renderer.Render(w, r, http.StatusOK, "thanks", render.Page{
		Title: "Thank you",
		Data:  thanksView{Event: event, Events: others},
	})
}

func (h *PublicHandler) loadEvent(w http.ResponseWriter, r *http.Request) (*events.Event, bool) {
	event, err := h.events.GetBySlug(r.Context(), r.PathValue("slug"))
	if errors.Is(err, events.ErrNotFound) {
		h.responder.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		h.responder.ServerError(w, r, err)
		return nil, false
	}
	return event, true
}

func (h *PublicHandler) renderEvent(w http.ResponseWriter, r *http.Request, status int, event *events.Event, form RegistrationForm, errs validation.Errors) {
	regs, err := h.registrations.ListByEvent(r.Context(), event.ID)
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}

	h.renderer.Render(w, r, status, "event", render.Page{
		Title:  event.Name,
		Errors: errs,
		Data: eventView{
			Event:         event,
			Registrations: regs,
			Form:          form,
			NameLocked:    auth.IdentityFromContext(r.Context()) != nil,
		},
	})
}
