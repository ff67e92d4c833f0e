package handlers

import (
	"errors"
	"net/http"

	"github.com/eventsignup/server/internal/api/pagination"
	"github.com/eventsignup/server/internal/api/render"
	"github.com/eventsignup/server/internal/audit"
	"github.com/eventsignup/server/internal/auth"
	"github.com/eventsignup/server/internal/domain/events"
	"github.com/eventsignup/server/internal/domain/registrations"
	"github.com/eventsignup/server/internal/validation"
)

// Family parameterizes the event management pages. The manager and admin
// areas share one handler set and differ only in these settings.
type Family struct {
	Role              auth.Role
	BasePath          string
	TemplatePrefix    string
	Fields            []render.Field
	AllowDelete       bool
	ShowRegistrations bool
}

var (
	UserFamily = Family{
		Role:           auth.RoleManager,
		BasePath:       "/user",
		TemplatePrefix: "user",
		Fields:         EventFields,
	}
	AdminFamily = Family{
		Role:              auth.RoleAdmin,
		BasePath:          "/admin",
		TemplatePrefix:    "admin",
		Fields:            EventFields,
		AllowDelete:       true,
		ShowRegistrations: true,
	}
)

type ManageHandler struct {
	family        Family
	events        *events.Service
	registrations *registrations.Service
	pipeline      *validation.Pipeline
	renderer      *render.Renderer
	audit         *audit.Logger
	responder     Responder
}

func NewManageHandler(family Family, eventsService *events.Service, registrationsService *registrations.Service, pipeline *validation.Pipeline, renderer *render.Renderer, auditLogger *audit.Logger) *ManageHandler {
	return &ManageHandler{
		family:        family,
		events:        eventsService,
		registrations: registrationsService,
		pipeline:      pipeline,
		renderer:      renderer,
		audit:         auditLogger,
		responder:     NewResponder(renderer),
	}
}

func (h *ManageHandler) Family() Family {
	return h.family
}

type manageListView struct {
	Family Family
	Events []events.Event
	// Counts maps event id to registrations; set when the family shows them.
	Counts map[string]int
	Links  pagination.Links
	Form   EventForm
}

type manageEditView struct {
	Family            Family
	Event             *events.Event
	Form              EventForm
	Registrations     []registrations.Registration
	ShowRegistrations bool
}

// List handles GET {base}: the listing with an empty create form.
func (h *ManageHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, EventForm{}, nil)
}

// Create handles POST {base}.
func (h *ManageHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := decodeEventForm(r)
	if err != nil {
		h.responder.BadRequest(w, r, err)
		return
	}

	submitted := form
	errs, err := h.pipeline.Check(r.Context(), &form, validation.UniqueEventName(h.events, &form.Name, ""))
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}
	if len(errs) > 0 {
		h.renderList(w, r, http.StatusBadRequest, submitted, errs)
		return
	}

	if err := validation.Sanitize(&form); err != nil {
		h.responder.ServerError(w, r, err)
		return
	}

	createdBy := ""
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		createdBy = identity.Username
	}
	event, err := h.events.Create(r.Context(), events.CreateParams{
		Name:        form.Name,
		Description: form.Description,
		CreatedBy:   createdBy,
	})
	if err != nil {
		h.audit.LogFromRequest(r, "event.create", "event", "", "failure", map[string]string{"name": form.Name})
		h.responder.ServerError(w, r, err)
		return
	}

	h.audit.LogFromRequest(r, "event.create", "event", event.ID, "success", map[string]string{"slug": event.Slug})
	redirect(w, r, h.family.BasePath)
}

// Edit handles GET {base}/{slug}.
func (h *ManageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	form := EventForm{Name: event.Name, Description: event.Description}
	h.renderEdit(w, r, http.StatusOK, event, form, nil)
}

// Update handles POST {base}/{slug}. Keeping the current name passes the
// uniqueness check because the event's own id is excluded.
func (h *ManageHandler) Update(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	form, err := decodeEventForm(r)
	if err != nil {
		h.responder.BadRequest(w, r, err)
		return
	}

	submitted := form
	errs, err := h.pipeline.Check(r.Context(), &form, validation.UniqueEventName(h.events, &form.Name, event.ID))
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}
	if len(errs) > 0 {
		h.renderEdit(w, r, http.StatusBadRequest, event, submitted, errs)
		return
	}

	if err := validation.Sanitize(&form); err != nil {
		h.responder.ServerError(w, r, err)
		return
	}

	updated, err := h.events.Update(r.Context(), event.ID, events.UpdateParams{
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		h.audit.LogFromRequest(r, "event.update", "event", event.ID, "failure", nil)
		h.responder.ServerError(w, r, err)
		return
	}

	details := map[string]string{"slug": updated.Slug}
	if updated.Slug != event.Slug {
		details["previous_slug"] = event.Slug
	}
	h.audit.LogFromRequest(r, "event.update", "event", event.ID, "success", details)
	redirect(w, r, h.family.BasePath)
}

// Delete handles POST {base}/delete. The slug comes from the form body or,
// failing that, the query string.
func (h *ManageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.family.AllowDelete {
		h.responder.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.responder.BadRequest(w, r, err)
		return
	}

	eventSlug := r.FormValue("slug")
	event, err := h.events.DeleteBySlug(r.Context(), eventSlug)
	if errors.Is(err, events.ErrNotFound) {
		h.responder.NotFound(w, r)
		return
	}
	if err != nil {
		h.audit.LogFromRequest(r, "event.delete", "event", "", "failure", map[string]string{"slug": eventSlug})
		h.responder.ServerError(w, r, err)
		return
	}

	h.audit.LogFromRequest(r, "event.delete", "event", event.ID, "success", map[string]string{"slug": event.Slug})
	redirect(w, r, h.family.BasePath)
}

func (h *ManageHandler) loadEvent(w http.ResponseWriter, r *http.Request) (*events.Event, bool) {
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

func (h *ManageHandler) renderList(w http.ResponseWriter, r *http.Request, status int, form EventForm, errs validation.Errors) {
	page := pagination.PageOrFirst(r.URL.Query().Get("page"))
	result, err := h.events.List(r.Context(), page, events.DefaultPageSize)
	if err != nil {
		h.responder.ServerError(w, r, err)
		return
	}

	view := manageListView{
		Family: h.family,
		Events: result.Events,
		Links:  pagination.NewLinks(h.family.BasePath, result.Page, result.HasPrev, result.HasNext),
		Form:   form,
	}
	if h.family.ShowRegistrations {
		view.Counts = make(map[string]int, len(result.Events))
		for _, event := range result.Events {
			count, err := h.registrations.CountByEvent(r.Context(), event.ID)
			if err != nil {
				h.responder.ServerError(w, r, err)
				return
			}
			view.Counts[event.ID] = count
		}
	}

	h.renderer.Render(w, r, status, h.family.TemplatePrefix+"_list", render.Page{
		Title:  "Manage events",
		Errors: errs,
		Data:   view,
	})
}

func (h *ManageHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, event *events.Event, form EventForm, errs validation.Errors) {
	view := manageEditView{
		Family:            h.family,
		Event:             event,
		Form:              form,
		ShowRegistrations: h.family.ShowRegistrations,
	}
	if h.family.ShowRegistrations {
		regs, err := h.registrations.ListByEvent(r.Context(), event.ID)
		if err != nil {
			h.responder.ServerError(w, r, err)
			return
		}
		view.Registrations = regs
	}

	h.renderer.Render(w, r, status, h.family.TemplatePrefix+"_edit", render.Page{
		Title:  event.Name,
		Errors: errs,
		Data:   view,
	})
}
