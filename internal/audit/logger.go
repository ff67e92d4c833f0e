package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/eventsignup/server/internal/auth"
	"github.com/rs/zerolog"
)

// Entry represents a single audit log entry with structured fields
type Entry struct {
	Timestamp    time.Time
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Status       string // "success" or "failure"
	Details      map[string]string
}

// Logger writes audit entries for account and event changes as zerolog
// lines tagged audit=true, so they can be filtered out of the request log.
type Logger struct {
	logger   zerolog.Logger
	clientIP func(*http.Request) string
}

type Option func(*Logger)

// WithClientIP replaces the RemoteAddr based address lookup, for example
// with one that honours trusted proxy headers.
func WithClientIP(fn func(*http.Request) string) Option {
	return func(l *Logger) {
		if fn != nil {
			l.clientIP = fn
		}
	}
}

func NewLogger(logger zerolog.Logger, opts ...Option) *Logger {
	l := &Logger{
		logger:   logger.With().Str("component", "audit").Bool("audit", true).Logger(),
		clientIP: remoteIP,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log writes an audit entry to the log output
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	event := l.logger.Info()
	if entry.Status == "failure" {
		event = l.logger.Warn()
	}

	details := zerolog.Dict()
	for key, value := range entry.Details {
		details = details.Str(key, value)
	}

	event.
		Time("at", entry.Timestamp).
		Str("action", entry.Action).
		Str("actor", entry.Actor).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("ip_address", entry.IPAddress).
		Str("status", entry.Status).
		Dict("details", details).
		Msg("audit")
}

// LogFromRequest logs an action taken by the request's identity. Anonymous
// requests (signup) are recorded with the actor given in details["username"]
// when present.
func (l *Logger) LogFromRequest(r *http.Request, action, resourceType, resourceID, status string, details map[string]string) {
	if l == nil {
		return
	}

	actor := "anonymous"
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		actor = identity.Username
	} else if username := details["username"]; username != "" {
		actor = username
	}

	l.Log(Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    l.clientIP(r),
		Status:       status,
		Details:      details,
	})
}

func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
