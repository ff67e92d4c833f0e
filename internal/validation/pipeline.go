// Package validation checks and cleans form submissions before they reach
// the domain services.
//
// A submission goes through three stages: markup is stripped from every
// free-text field, then the struct tag rules and the business rules run
// side by side. All failures are collected so the form can show every
// problem at once.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/eventsignup/server/internal/metrics"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// Rule is a business check run after the structural rules. It returns a
// field error when the input is rejected and a non-nil error only when the
// check itself could not run.
type Rule func(ctx context.Context) (*FieldError, error)

// Named is implemented by form DTOs that want failures counted per form.
type Named interface {
	FormName() string
}

type Pipeline struct {
	validate *validator.Validate
}

func New() *Pipeline {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Pipeline{validate: v}
}

// Check strips markup from dto (a pointer to a tagged struct), then runs the
// struct tag rules and the given rules concurrently. A non-nil error means a
// rule could not run; the returned Errors are only meaningful when it is nil.
func (p *Pipeline) Check(ctx context.Context, dto any, rules ...Rule) (Errors, error) {
	if err := stripMarkup(dto); err != nil {
		return nil, err
	}

	var structural Errors
	custom := make([]*FieldError, len(rules))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		structural, err = p.structural(gctx, dto)
		return err
	})
	for i, rule := range rules {
		g.Go(func() error {
			fe, err := rule(gctx)
			if err != nil {
				return fmt.Errorf("validation rule: %w", err)
			}
			custom[i] = fe
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := structural
	for _, fe := range custom {
		if fe != nil {
			out = append(out, *fe)
		}
	}

	if named, ok := dto.(Named); ok {
		for _, fe := range out {
			metrics.ValidationFailures.WithLabelValues(named.FormName(), fe.Field).Inc()
		}
	}
	return out, nil
}

func (p *Pipeline) structural(ctx context.Context, dto any) (Errors, error) {
	err := p.validate.StructCtx(ctx, dto)
	if err == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("structural validation: %w", err)
	}

	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out, nil
}

// message builds the text shown for a failed tag from the field label.
func message(fe validator.FieldError) string {
	label := labelFor(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "eqfield":
		return label + " does not match"
	default:
		return label + " is invalid"
	}
}

func labelFor(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
