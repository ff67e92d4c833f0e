package handlers

import (
	"net/http"

	"github.com/eventsignup/server/internal/api/middleware"
	"github.com/eventsignup/server/internal/api/render"
)

// Responder renders the shared error pages. Error details only go to the
// log; the page shows the request id so a report can be matched to it.
type Responder struct {
	renderer *render.Renderer
}

func NewResponder(renderer *render.Renderer) Responder {
	return Responder{renderer: renderer}
}

func (resp Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	resp.renderer.Render(w, r, http.StatusNotFound, "not_found", render.Page{Title: "Not found"})
}

// BadRequest is used for bodies that cannot be parsed at all, such as an
// oversized form.
func (resp Responder) BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	middleware.LoggerFromContext(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("unreadable request")
	resp.renderer.Render(w, r, http.StatusBadRequest, "error", render.Page{
		Title: "Bad request",
		Data:  middleware.GetRequestID(r.Context()),
	})
}

func (resp Responder) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	resp.renderer.Render(w, r, http.StatusInternalServerError, "error", render.Page{
		Title: "Error",
		Data:  middleware.GetRequestID(r.Context()),
	})
}

// Panic is the middleware.Recover callback; the panic is already logged.
func (resp Responder) Panic(w http.ResponseWriter, r *http.Request, _ error) {
	resp.renderer.Render(w, r, http.StatusInternalServerError, "error", render.Page{
		Title: "Error",
		Data:  middleware.GetRequestID(r.Context()),
	})
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
