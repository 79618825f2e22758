package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/frahmantamala/filehub/internal/database"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "apply the embedded sql migrations to the users and files databases",
	}
	migrateRollback bool
	migrateDB       string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().StringVar(&migrateDB, "db", "", "only migrate this database (users or files)")
}

func migrationTargets(only string) ([]database.Name, error) {
	if only == "" {
		return database.Names, nil
	}
	for _, name := range database.Names {
		if string(name) == only {
			return []database.Name{name}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", database.ErrUnknownDatabase, only)
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	targets, err := migrationTargets(migrateDB)
	if err != nil {
		return err
	}

	registry := database.NewRegistry(cfg.Database, slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, name := range targets {
		if err := database.Migrate(ctx, registry, name, migrateRollback); err != nil {
			return err
		}
		direction := "up"
		if migrateRollback {
			direction = "down"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "goose %s: %s database done\n", direction, name)
	}
	return nil
}
