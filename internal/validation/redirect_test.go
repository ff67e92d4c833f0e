package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateLocalPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"root", "/", ""},
		{"family listing", "/admin", ""},
		{"with query", "/user/jazz-night?page=2", ""},
		{"empty", "", "path is empty"},
		{"absolute url", "https://evil.example", "must be local"},
		{"scheme relative", "//evil.example/admin", "must be local"},
		{"backslash", "/\\evil.example", "must be local"},
		{"relative", "admin", "must be local"},
		{"header injection", "/admin\r\nSet-Cookie: x=y", "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocalPath(tt.path, "next")
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSafeRedirect(t *testing.T) {
	require.Equal(t, "/admin", SafeRedirect("/admin", "/"))
	require.Equal(t, "/", SafeRedirect("//evil.example", "/"))
	require.Equal(t, "/user", SafeRedirect("", "/user"))
}
