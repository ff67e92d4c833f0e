package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/eventsignup/server/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicList(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()

	w := serve(h.List, getRequest("/"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "There are no events yet.")

	env.createEvent(t, "Jazz Night", "")
	env.createEvent(t, "Chess Club", "")

	w = serve(h.List, getRequest("/"))
	require.Equal(t, http.StatusOK, w.Code)
	doc := parseHTML(t, w)
	links := doc.Find("ul.events a")
	require.Equal(t, 2, links.Length())
	href, _ := links.First().Attr("href")
	assert.Equal(t, "/jazz-night", href)
	assert.Equal(t, "Jazz Night", links.First().Text())
}

func TestPublicList_Paging(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	for i := 1; i <= 21; i++ {
		env.createEvent(t, fmt.Sprintf("Event %02d", i), "")
	}

	doc := parseHTML(t, serve(h.List, getRequest("/")))
	assert.Equal(t, 20, doc.Find("ul.events li").Length())
	next, ok := doc.Find(`a[rel="next"]`).Attr("href")
	require.True(t, ok)
	assert.Equal(t, "/?page=2", next)

	doc = parseHTML(t, serve(h.List, getRequest("/?page=2")))
	assert.Equal(t, 1, doc.Find("ul.events li").Length())
	prev, ok := doc.Find(`a[rel="prev"]`).Attr("href")
	require.True(t, ok)
	assert.Equal(t, "/", prev)
	assert.Equal(t, 0, doc.Find(`a[rel="next"]`).Length())
}

func TestPublicGet(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	env.createEvent(t, "Jazz Night", "Bring **shoes**.\n<script>alert(1)</script>")

	w := serve(h.Get, withSlug(getRequest("/jazz-night"), "jazz-night"))
	require.Equal(t, http.StatusOK, w.Code)
	doc := parseHTML(t, w)
	assert.Equal(t, "Jazz Night", doc.Find("h1").Text())
	assert.Equal(t, "shoes", doc.Find(".description strong").Text())
	assert.Equal(t, 0, doc.Find(".description script").Length())
	assert.Contains(t, doc.Find(".registrations").Text(), "Nobody has registered yet.")
	assert.Equal(t, 1, doc.Find(`input[name="name"]`).Length())
}

func TestPublicGet_UnknownSlug(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()

	w := serve(h.Get, withSlug(getRequest("/nope"), "nope"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h.Register, withSlug(postForm("/nope", url.Values{"name": {"Ann"}}), "nope"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h.Thanks, withSlug(getRequest("/nope/thanks"), "nope"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicGet_SignedInLocksName(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	env.createEvent(t, "Jazz Night", "")

	req := withIdentity(withSlug(getRequest("/jazz-night"), "jazz-night"), auth.Identity{Username: "ann", Name: "Ann Lee", Role: auth.RoleUser})
	doc := parseHTML(t, serve(h.Get, req))
	assert.Equal(t, 0, doc.Find(`input[name="name"]`).Length())
	assert.Contains(t, doc.Find("form.entry").Text(), "Registering as Ann Lee")
}

func TestPublicRegister(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	event := env.createEvent(t, "Jazz Night", "")

	req := withSlug(postForm("/jazz-night", url.Values{"name": {"  <b>Ann</b> "}, "comment": {"vegetarian"}}), "jazz-night")
	w := serve(h.Register, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/jazz-night/thanks", w.Header().Get("Location"))

	regs := env.registrationsFor(t, event.ID)
	require.Len(t, regs, 1)
	assert.Equal(t, "Ann", regs[0].Name)
	assert.Equal(t, "vegetarian", regs[0].Comment)
}

func TestPublicRegister_DuplicateNamesAllowed(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	event := env.createEvent(t, "Jazz Night", "")

	for i := 0; i < 2; i++ {
		w := serve(h.Register, withSlug(postForm("/jazz-night", url.Values{"name": {"Ann"}}), "jazz-night"))
		require.Equal(t, http.StatusSeeOther, w.Code)
	}
	assert.Len(t, env.registrationsFor(t, event.ID), 2)
}

func TestPublicRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{name: "missing name", form: url.Values{"comment": {"hi"}}, message: "Name is required"},
		{name: "markup only name", form: url.Values{"name": {"<i></i>"}}, message: "Name is required"},
		{name: "name too long", form: url.Values{"name": {strings.Repeat("a", 65)}}, message: "Name must be at most 64 characters"},
		{name: "comment too long", form: url.Values{"name": {"Ann"}, "comment": {strings.Repeat("c", 401)}}, message: "Comment must be at most 400 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			h := env.public()
			event := env.createEvent(t, "Jazz Night", "")

			w := serve(h.Register, withSlug(postForm("/jazz-night", tt.form), "jazz-night"))
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, fieldErrors(parseHTML(t, w)), tt.message)
			assert.Empty(t, env.registrationsFor(t, event.ID))
		})
	}
}

func TestPublicRegister_BoundaryLengths(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	event := env.createEvent(t, "Jazz Night", "")

	for _, name := range []string{"A", strings.Repeat("a", 64)} {
		w := serve(h.Register, withSlug(postForm("/jazz-night", url.Values{"name": {name}}), "jazz-night"))
		require.Equal(t, http.StatusSeeOther, w.Code, "name of length %d", len(name))
	}
	assert.Len(t, env.registrationsFor(t, event.ID), 2)
}

func TestPublicRegister_KeepsSubmittedValues(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	env.createEvent(t, "Jazz Night", "")

	w := serve(h.Register, withSlug(postForm("/jazz-night", url.Values{"comment": {"see you there"}}), "jazz-night"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	doc := parseHTML(t, w)
	assert.Equal(t, "see you there", doc.Find(`textarea[name="comment"]`).Text())
}

func TestPublicRegister_SignedInUsesAccountName(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	event := env.createEvent(t, "Jazz Night", "")

	req := withSlug(postForm("/jazz-night", url.Values{"name": {"Somebody Else"}}), "jazz-night")
	req = withIdentity(req, auth.Identity{Username: "ann", Name: "Ann Lee", Role: auth.RoleUser})
	w := serve(h.Register, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	regs := env.registrationsFor(t, event.ID)
	require.Len(t, regs, 1)
	assert.Equal(t, "Ann Lee", regs[0].Name)
}

func TestPublicThanks(t *testing.T) {
	env := newTestEnv(t)
	h := env.public()
	env.createEvent(t, "Jazz Night", "")
	env.createEvent(t, "Chess Club", "")

	w := serve(h.Thanks, withSlug(getRequest("/jazz-night/thanks"), "jazz-night"))
	require.Equal(t, http.StatusOK, w.Code)
	doc := parseHTML(t, w)
	others := doc.Find("ul.events a")
	require.Equal(t, 1, others.Length())
	assert.Equal(t, "Chess Club", others.Text())
}
