package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/eventsignup/server/internal/api/handlers"
	"github.com/spf13/cobra"
)

func newHealthcheckCommand() *cobra.Command {
	var (
		timeout time.Duration
		target  string
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe /readyz of a running server",
		Long: `Calls the readiness endpoint of a running server and exits non-zero
unless it reports healthy. Intended for container HEALTHCHECK lines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = defaultReadyzURL()
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return checkHealth(ctx, target)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for the server")
	cmd.Flags().StringVar(&target, "url", "", "readiness URL (default http://localhost:$SERVER_PORT/readyz)")
	return cmd
}

func defaultReadyzURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return "http://localhost:" + port + "/readyz"
}

func checkHealth(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	var report handlers.HealthCheck
	decodeErr := json.NewDecoder(resp.Body).Decode(&report)

	if resp.StatusCode != http.StatusOK {
		if failing := failingChecks(report); failing != "" {
			return fmt.Errorf("not ready (HTTP %d): %s", resp.StatusCode, failing)
		}
		return fmt.Errorf("not ready (HTTP %d)", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("unreadable readiness report: %w", decodeErr)
	}
	if report.Status != "healthy" {
		return fmt.Errorf("not ready: server reports %q", report.Status)
	}
	return nil
}

// failingChecks lists non-passing checks as "name: message".
func failingChecks(report handlers.HealthCheck) string {
	var out []string
	for name, check := range report.Checks {
		if check.Status == "pass" {
			continue
		}
		if check.Message != "" {
			name += ": " + check.Message
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
