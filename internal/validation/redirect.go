package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLValidationError represents a rejected redirect target.
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateLocalPath accepts only same-site absolute paths such as
// "/admin/jazz-night?page=2". Scheme-relative ("//host") and backslash
// variants are rejected because browsers treat them as external.
func ValidateLocalPath(raw, fieldName string) error {
	if raw == "" {
		return URLValidationError{Field: fieldName, Message: "path is empty", URL: raw}
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return URLValidationError{Field: fieldName, Message: "path must be local", URL: raw}
	}
	if strings.ContainsAny(raw, "\r\n\t") {
		return URLValidationError{Field: fieldName, Message: "path contains control characters", URL: raw}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return URLValidationError{Field: fieldName, Message: "invalid path format", URL: raw}
	}
	if parsed.Scheme != "" || parsed.Host != "" || parsed.User != nil {
		return URLValidationError{Field: fieldName, Message: "path must be local", URL: raw}
	}
	return nil
}

// SafeRedirect returns next when it is a local path and fallback otherwise.
func SafeRedirect(next, fallback string) string {
	if ValidateLocalPath(next, "next") != nil {
		return fallback
	}
	return next
}
