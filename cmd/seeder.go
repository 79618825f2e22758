package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/database"
	"github.com/frahmantamala/filehub/internal/department"
	departmentSqlite "github.com/frahmantamala/filehub/internal/department/sqlite"
	"github.com/frahmantamala/filehub/internal/user"
	userSqlite "github.com/frahmantamala/filehub/internal/user/sqlite"
	"github.com/spf13/cobra"
)

var (
	seedUsername   string
	seedPassword   string
	seedDepartment string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first admin account",
	Long:  `Create the databases if needed and register an admin account so the web UI can be used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Database.Validate(); err != nil {
			return fmt.Errorf("invalid database config: %w", err)
		}
		if seedPassword == "" {
			return errors.New("--password is required")
		}

		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		registry := database.NewRegistry(cfg.Database, lg)
		if _, err := database.EnsureDatabases(ctx, registry); err != nil {
			return err
		}

		departments := department.NewService(departmentSqlite.NewDepartmentRepository(registry), lg)
		users := user.NewService(userSqlite.NewUserRepository(registry), departments, cfg.Security.BCryptCost, lg)

		err = registry.RunInUnit(ctx, func(ctx context.Context) error {
			_, err := users.Register(ctx, user.RegisterDTO{
				Username:   seedUsername,
				Password:   seedPassword,
				Role:       internal.RoleAdmin,
				Department: seedDepartment,
			})
			return err
		})
		if errors.Is(err, internal.ErrUsernameTaken) {
			fmt.Fprintf(cmd.OutOrStdout(), "user %q already exists; nothing to do\n", seedUsername)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded admin user: %s\n", seedUsername)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedUsername, "username", "admin", "admin username")
	seedCmd.Flags().StringVar(&seedPassword, "password", "", "admin password")
	seedCmd.Flags().StringVar(&seedDepartment, "department", internal.DefaultDepartment, "admin department")
}
