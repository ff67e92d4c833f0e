package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{args: []string{"--help"}, want: "Event signup server"},
		{args: []string{"-h"}, want: "Event signup server"},
		{args: []string{"--invalid-flag"}, want: "unknown flag: --invalid-flag", wantErr: true},
		{args: []string{"publish"}, want: `unknown command "publish"`, wantErr: true},
		{args: []string{"users", "create"}, want: `required flag(s) "username" not set`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := runRoot(t, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				out += err.Error()
			} else {
				require.NoError(t, err)
			}
			require.Contains(t, out, tt.want)
		})
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"config", "log-level", "log-format"} {
		require.NotNil(t, root.PersistentFlags().Lookup(name), "persistent flag %q", name)
	}

	for _, path := range []string{"serve", "migrate up", "migrate down", "users create", "version", "healthcheck"} {
		args := strings.Fields(path)
		found, _, err := root.Find(args)
		require.NoError(t, err, path)
		require.Equal(t, args[len(args)-1], found.Name(), path)
	}
}

func TestLoadConfigAppliesLogFlags(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://:memory:")
	t.Setenv("JWT_SECRET", "cmd-test-secret")

	opts := &globalOptions{logLevel: "debug", logFormat: "console"}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
}
