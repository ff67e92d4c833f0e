package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/eventsignup/server/internal/api/handlers"
	"github.com/eventsignup/server/internal/config"
	"github.com/eventsignup/server/internal/domain/users"
	"github.com/eventsignup/server/internal/storage"
	"github.com/eventsignup/server/internal/validation"
	"github.com/spf13/cobra"
)

func newUsersCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUsersCreateCommand(opts))
	return cmd
}

type createUserInput struct {
	name     string
	username string
	password string
	admin    bool
	manager  bool
}

func newUsersCreateCommand(opts *globalOptions) *cobra.Command {
	var input createUserInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account directly in the database.

Accounts created here are plain users unless --manager or --admin is given.
The password is read from --password or, when empty, from USER_PASSWORD.

Examples:
  server users create --username root --name "Site Admin" --admin --password 's3cret!'
  USER_PASSWORD=hunter22 server users create --username mia --name "Mia" --manager`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.password == "" {
				input.password = os.Getenv("USER_PASSWORD")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			user, err := createUser(ctx, cfg, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q\n", user.Role(), user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.name, "name", "", "display name (defaults to the username)")
	cmd.Flags().StringVar(&input.username, "username", "", "login name")
	cmd.Flags().StringVar(&input.password, "password", "", "password (or set USER_PASSWORD)")
	cmd.Flags().BoolVar(&input.admin, "admin", false, "grant the admin role")
	cmd.Flags().BoolVar(&input.manager, "manager", false, "grant the manager role")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// createUser runs the signup validation rules and stores the account.
func createUser(ctx context.Context, cfg config.Config, input createUserInput) (*users.User, error) {
	if input.name == "" {
		input.name = input.username
	}

	store, err := storage.Open(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer store.Close()

	logger := config.NewLogger(cfg.Logging)
	svc := users.NewService(store.Users(), logger)

	form := handlers.SignupForm{Name: input.name, Username: input.username, Password: input.password}
	errs, err := validation.New().Check(ctx, &form, validation.UniqueUsername(svc, &form.Username))
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.New(strings.Join(errs.Messages(), "; "))
	}

	return svc.Create(ctx, users.CreateParams{
		Name:     form.Name,
		Username: form.Username,
		Password: form.Password,
		Admin:    input.admin,
		Manager:  input.manager,
	})
}
