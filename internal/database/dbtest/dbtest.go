// Package dbtest builds migrated throwaway databases for repository tests.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/database"
)

// NewRegistry creates both databases under dir and applies the schema.
func NewRegistry(dir string) (*database.Registry, error) {
	cfg := internal.DatabaseConfig{
		UsersPath:   filepath.Join(dir, "user_data.db"),
		FilesPath:   filepath.Join(dir, "files_data.db"),
		BusyTimeout: time.Second,
	}
	registry := database.NewRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := database.EnsureDatabases(context.Background(), registry); err != nil {
		return nil, err
	}
	return registry, nil
}
