package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/frahmantamala/filehub/internal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Name is the logical name of one of the SQLite files.
type Name string

const (
	Users Name = "users"
	Files Name = "files"
)

var Names = []Name{Users, Files}

var (
	ErrUnknownDatabase = errors.New("unknown database")
	ErrUnitClosed      = errors.New("unit of work already closed")
)

// Conns hands out a gorm handle for a logical database. release must be
// called once the caller is done with the handle.
type Conns interface {
	Conn(ctx context.Context, name Name) (db *gorm.DB, release func(), err error)
}

// Registry opens SQLite handles. It never pools handles across units of work:
// every Unit owns the handles it opened and closes them in Close.
type Registry struct {
	cfg    internal.DatabaseConfig
	paths  map[Name]string
	logger *slog.Logger
}

func NewRegistry(cfg internal.DatabaseConfig, logger *slog.Logger) *Registry {
	return &Registry{
		cfg: cfg,
		paths: map[Name]string{
			Users: cfg.UsersPath,
			Files: cfg.FilesPath,
		},
		logger: logger,
	}
}

func (r *Registry) Path(name Name) (string, error) {
	p, ok := r.paths[name]
	if !ok || p == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownDatabase, name)
	}
	return p, nil
}

func (r *Registry) open(name Name) (*gorm.DB, error) {
	path, err := r.Path(name)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(r.cfg.DSN(path)), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get %s sql handle: %w", name, err)
	}
	// one physical connection per handle
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	r.logger.Debug("database handle opened", "database", name)
	return db, nil
}

func closeHandle(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewUnit starts a unit of work. Callers must Close it.
func (r *Registry) NewUnit() *Unit {
	return &Unit{
		registry: r,
		handles:  make(map[Name]*gorm.DB),
	}
}

// Conn returns the handle cached in the unit of work carried by ctx, opening
// it on first use. Without a unit the caller gets a directly-owned handle and
// release closes it.
func (r *Registry) Conn(ctx context.Context, name Name) (*gorm.DB, func(), error) {
	if unit, ok := UnitFromContext(ctx); ok {
		db, err := unit.Get(name)
		if err != nil {
			return nil, nil, err
		}
		return db.WithContext(ctx), func() {}, nil
	}

	db, err := r.open(name)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := closeHandle(db); err != nil {
			r.logger.Warn("failed to close database handle", "database", name, "error", err)
		}
	}
	return db.WithContext(ctx), release, nil
}

// Middleware attaches a fresh unit of work to each request and closes it
// when the request finishes.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		unit := r.NewUnit()
		defer func() {
			if err := unit.Close(); err != nil {
				r.logger.ErrorContext(req.Context(), "failed to close unit of work", "error", err)
			}
		}()
		next.ServeHTTP(w, req.WithContext(WithUnit(req.Context(), unit)))
	})
}

// Unit caches at most one handle per logical database.
type Unit struct {
	registry *Registry
	mu       sync.Mutex
	handles  map[Name]*gorm.DB
	closed   bool
}

func (u *Unit) Get(name Name) (*gorm.DB, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil, ErrUnitClosed
	}
	if db, ok := u.handles[name]; ok {
		return db, nil
	}

	db, err := u.registry.open(name)
	if err != nil {
		return nil, err
	}
	u.handles[name] = db
	return db, nil
}

// Opened reports how many handles the unit currently holds.
func (u *Unit) Opened() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.handles)
}

func (u *Unit) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true

	var errs []error
	for name, db := range u.handles {
		if err := closeHandle(db); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(u.handles, name)
	}
	return errors.Join(errs...)
}

type unitKey struct{}

func WithUnit(ctx context.Context, u *Unit) context.Context {
	return context.WithValue(ctx, unitKey{}, u)
}

func UnitFromContext(ctx context.Context) (*Unit, bool) {
	u, ok := ctx.Value(unitKey{}).(*Unit)
	return u, ok && u != nil
}

// RunInUnit runs fn inside the unit carried by ctx, or inside a new one that
// is closed when fn returns.
func (r *Registry) RunInUnit(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := UnitFromContext(ctx); ok {
		return fn(ctx)
	}
	unit := r.NewUnit()
	defer func() {
		if err := unit.Close(); err != nil {
			r.logger.Warn("failed to close unit of work", "error", err)
		}
	}()
	return fn(WithUnit(ctx, unit))
}
