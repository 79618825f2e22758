package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

const migrationsTable = "schema_migrations"

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func migrationsDir(name Name) string {
	return "migrations/" + string(name)
}

// EnsureDatabases creates every database file that does not exist yet and
// applies its schema once. Existing files are left untouched, so restarts are
// idempotent.
func EnsureDatabases(ctx context.Context, r *Registry) ([]Name, error) {
	var created []Name
	for _, name := range Names {
		path, err := r.Path(name)
		if err != nil {
			return created, err
		}

		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return created, fmt.Errorf("stat %s database: %w", name, err)
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return created, fmt.Errorf("create directory for %s database: %w", name, err)
			}
		}

		r.logger.Info("creating database", "database", name, "path", path)
		if err := Migrate(ctx, r, name, false); err != nil {
			// leave no half-initialised file behind
			_ = os.Remove(path)
			return created, err
		}
		created = append(created, name)
		r.logger.Info("database created", "database", name, "path", path)
	}
	return created, nil
}

// Migrate applies (or with rollback, reverts the latest) embedded migration
// for one database.
func Migrate(ctx context.Context, r *Registry, name Name, rollback bool) error {
	db, err := r.open(name)
	if err != nil {
		return err
	}
	defer func() { _ = closeHandle(db) }()

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get %s sql handle: %w", name, err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(migrationsTable)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if rollback {
		if err := goose.DownContext(ctx, sqlDB, migrationsDir(name)); err != nil {
			return fmt.Errorf("goose down %s: %w", name, err)
		}
		return nil
	}

	if err := goose.UpContext(ctx, sqlDB, migrationsDir(name)); err != nil {
		return fmt.Errorf("goose up %s: %w", name, err)
	}
	return nil
}
