package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eventsignup/server/internal/api/middleware"
	"github.com/eventsignup/server/internal/metrics"
)

// HealthCheck is the body of GET /readyz.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms"`
	Details   map[string]any `json:"details,omitempty"`
}

// Database is the part of the store the readiness check needs.
type Database interface {
	Ping(ctx context.Context) error
	PoolStats() metrics.PoolStats
}

type HealthChecker struct {
	db        Database
	version   string
	gitCommit string
	timeout   time.Duration
}

func NewHealthChecker(db Database, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		db:        db,
		version:   version,
		gitCommit: gitCommit,
		timeout:   2 * time.Second,
	}
}

// Readyz reports 503 while the database cannot be reached or the server is
// shutting down.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "shutting_down"})
			return
		default:
		}

		database := h.checkDatabase(r.Context())
		status, code := "healthy", http.StatusOK
		if database.Status != "pass" {
			status, code = "unhealthy", http.StatusServiceUnavailable
			middleware.LoggerFromContext(r.Context()).Warn().Str("message", database.Message).Msg("readiness check failed")
		}

		writeJSON(w, code, HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    map[string]CheckResult{"database": database},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: "fail", Message: "Database not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Database ping failed"
		if ctx.Err() == context.DeadlineExceeded {
			message = "Database ping timed out"
		}
		return CheckResult{Status: "fail", Message: message, LatencyMs: latency}
	}

	stats := h.db.PoolStats()
	return CheckResult{
		Status:    "pass",
		LatencyMs: latency,
		Details: map[string]any{
			"open_connections":   stats.Open,
			"in_use_connections": stats.InUse,
			"idle_connections":   stats.Idle,
			"max_connections":    stats.Max,
		},
	}
}

// Healthz is the liveness probe; it never touches the database.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
