package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventsignup/server/internal/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	return line
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.Log(Entry{
		Action:       "event.update",
		Actor:        "anna",
		ResourceType: "event",
		ResourceID:   "01HX12ABC123",
		IPAddress:    "192.168.1.1",
		Status:       "success",
		Details:      map[string]string{"slug": "summer-picnic"},
	})

	line := decodeLine(t, &buf)
	require.Equal(t, "audit", line["message"])
	require.Equal(t, true, line["audit"])
	require.Equal(t, "event.update", line["action"])
	require.Equal(t, "anna", line["actor"])
	require.Equal(t, "01HX12ABC123", line["resource_id"])
	require.Equal(t, "info", line["level"])
	require.Equal(t, map[string]any{"slug": "summer-picnic"}, line["details"])
	require.NotEmpty(t, line["at"])
}

func TestLogger_FailureIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.Log(Entry{Action: "event.delete", Status: "failure"})

	require.Equal(t, "warn", decodeLine(t, &buf)["level"])
}

func TestLogFromRequest_UsesIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.RemoteAddr = "203.0.113.5:4321"
	req = req.WithContext(auth.ContextWithIdentity(req.Context(), &auth.Identity{Username: "admin", Role: auth.RoleAdmin}))

	logger.LogFromRequest(req, "event.create", "event", "01HX12NEW123", "success", nil)

	line := decodeLine(t, &buf)
	require.Equal(t, "admin", line["actor"])
	require.Equal(t, "203.0.113.5", line["ip_address"])
}

func TestLogFromRequest_Anonymous(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf), WithClientIP(func(*http.Request) string { return "198.51.100.1" }))

	req := httptest.NewRequest(http.MethodPost, "/user/signup", nil)
	logger.LogFromRequest(req, "user.signup", "user", "", "success", map[string]string{"username": "bob"})

	line := decodeLine(t, &buf)
	require.Equal(t, "bob", line["actor"])
	require.Equal(t, "198.51.100.1", line["ip_address"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Log(Entry{Action: "noop"})
	logger.LogFromRequest(httptest.NewRequest(http.MethodGet, "/", nil), "noop", "", "", "success", nil)
}
