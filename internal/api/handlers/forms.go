package handlers

import (
	"net/http"

	"github.com/eventsignup/server/internal/api/render"
)

// EventFields are the inputs of the create and edit forms, in display order.
var EventFields = []render.Field{
	{Name: "name", Label: "Name", MaxLength: 64},
	{Name: "description", Label: "Description", Multiline: true, MaxLength: 1000},
}

type EventForm struct {
	Name        string `form:"name" validate:"required,max=64"`
	Description string `form:"description" validate:"max=1000"`
}

func (EventForm) FormName() string { return "event" }

// Value returns the submitted value of a field for re-rendering.
func (f EventForm) Value(field string) string {
	switch field {
	case "name":
		return f.Name
	case "description":
		return f.Description
	default:
		return ""
	}
}

type RegistrationForm struct {
	Name    string `form:"name" validate:"required,max=64"`
	Comment string `form:"comment" validate:"max=400"`
}

func (RegistrationForm) FormName() string { return "registration" }

type SignupForm struct {
	Name     string `form:"name" validate:"required,max=64"`
	Username string `form:"username" validate:"required,max=64"`
	Password string `form:"password" validate:"min=6,max=256" sanitize:"-"`
}

func (SignupForm) FormName() string { return "signup" }

type LoginForm struct {
	Username string `form:"username" validate:"required,max=64"`
	Password string `form:"password" validate:"required,max=256" sanitize:"-"`
	Next     string `form:"next" sanitize:"-"`
}

func (LoginForm) FormName() string { return "login" }

// Decoders read only the POST body; query parameters never fill a form.

func decodeEventForm(r *http.Request) (EventForm, error) {
	if err := r.ParseForm(); err != nil {
		return EventForm{}, err
	}
	return EventForm{
		Name:        r.PostForm.Get("name"),
		Description: r.PostForm.Get("description"),
	}, nil
}

func decodeRegistrationForm(r *http.Request) (RegistrationForm, error) {
	if err := r.ParseForm(); err != nil {
		return RegistrationForm{}, err
	}
	return RegistrationForm{
		Name:    r.PostForm.Get("name"),
		Comment: r.PostForm.Get("comment"),
	}, nil
}

func decodeSignupForm(r *http.Request) (SignupForm, error) {
	if err := r.ParseForm(); err != nil {
		return SignupForm{}, err
	}
	return SignupForm{
		Name:     r.PostForm.Get("name"),
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, nil
}

func decodeLoginForm(r *http.Request) (LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return LoginForm{}, err
	}
	return LoginForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Next:     r.PostForm.Get("next"),
	}, nil
}
