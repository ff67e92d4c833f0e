package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/eventsignup/server/internal/api"
	"github.com/eventsignup/server/internal/config"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/eventsignup/server/internal/metrics"
	"github.com/eventsignup/server/internal/storage"
	"github.com/eventsignup/server/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		serverHost string
		serverPort int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Serve the public registration pages, the manager pages under /user
and the admin pages under /admin until SIGINT or SIGTERM.

Configuration comes from the environment, an optional .env file and the
--config YAML file. When ADMIN_USERNAME and ADMIN_PASSWORD are set, that
admin account is created on start if it does not exist.

Examples:
  server serve
  server serve --host 127.0.0.1 --port 9090
  server serve --log-level debug --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if serverHost != "" {
				cfg.Server.Host = serverHost
			}
			if serverPort != 0 {
				cfg.Server.Port = serverPort
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
	return cmd
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	openCtx, openCancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := storage.Open(openCtx, cfg.Database.URL, cfg.Database.MaxConnections)
	openCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("database close error")
		}
	}()

	bootstrapCtx, bootstrapCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := bootstrapAdminUser(bootstrapCtx, cfg, users.NewService(store.Users(), logger), logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	poolCollector := metrics.NewPoolCollector(store.PoolStats)
	if err := metrics.Registry.Register(poolCollector); err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}
	defer metrics.Registry.Unregister(poolCollector)

	handler, err := api.NewRouter(api.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Version:   Version,
		GitCommit: GitCommit,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return shutdown(server, logger)
	})
	return group.Wait()
}

// bootstrapAdminUser creates the configured admin account unless the
// username already exists.
func bootstrapAdminUser(ctx context.Context, cfg config.Config, svc *users.Service, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Username == "" || bootstrap.Password == "" {
		logger.Debug().Msg("admin bootstrap not configured; skipping")
		return nil
	}

	existing, err := svc.FindByUsername(ctx, bootstrap.Username)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		return nil
	}

	name := bootstrap.Name
	if name == "" {
		name = bootstrap.Username
	}
	if _, err := svc.Create(ctx, users.CreateParams{
		Name:     name,
		Username: bootstrap.Username,
		Password: bootstrap.Password,
		Admin:    true,
	}); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	logger.Info().Str("username", bootstrap.Username).Msg("bootstrapped admin user")
	return nil
}

// shutdown drains in-flight requests for up to ten seconds.
func shutdown(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
