package validation

import "strings"

// FieldError is one message attached to one form field.
type FieldError struct {
	Field   string
	Message string
}

// Errors is the ordered list of field errors for one submission:
// structural errors first, then business rule errors.
type Errors []FieldError

func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// For returns the messages for one field, in order.
func (e Errors) For(field string) []string {
	var out []string
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

func (e Errors) Messages() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Message)
	}
	return out
}

func (e Errors) Error() string {
	return strings.Join(e.Messages(), "; ")
}
