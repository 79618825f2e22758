package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/collector"
	"github.com/frahmantamala/filehub/internal/collector/discord"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/internal/database"
	"github.com/frahmantamala/filehub/internal/file"
	fileSqlite "github.com/frahmantamala/filehub/internal/file/sqlite"
	"github.com/frahmantamala/filehub/internal/ingest"
	"github.com/frahmantamala/filehub/internal/storage"
	"github.com/frahmantamala/filehub/pkg/logger"
	"github.com/spf13/afero"
)

// app holds what both the web server and the standalone collector need.
type app struct {
	cfg      *internal.Config
	logger   *slog.Logger
	registry *database.Registry
	store    *storage.LocalStore
	bus      *events.EventBus
	fileRepo file.Repository
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg *internal.Config) (*app, error) {
	activity, err := logger.OpenLogFile(cfg.Storage.LogsDir, logger.ActivityLogFile)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	lg := setupLogger(cfg, activity)

	a := &app{cfg: cfg, logger: lg, closers: []io.Closer{activity}}

	a.registry = database.NewRegistry(cfg.Database, lg)
	created, err := database.EnsureDatabases(ctx, a.registry)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("ensure databases: %w", err)
	}
	for _, name := range created {
		lg.Info("initialised database", "database", name)
	}

	a.store, err = storage.NewLocalStore(afero.NewOsFs(), cfg.Storage.DownloadsDir)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.fileRepo = fileSqlite.NewFileRepository(a.registry)

	audit, err := logger.OpenLogFile(cfg.Storage.LogsDir, ingest.AuditFile)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	a.closers = append(a.closers, audit)

	a.bus = events.NewEventBus(lg)
	ingest.NewAuditLog(audit).Subscribe(a.bus)

	return a, nil
}

func (a *app) newAdapter() *ingest.Adapter {
	cfg := a.cfg.Ingest
	downloader := ingest.NewHTTPDownloader(cfg.DownloadTimeout, cfg.DownloadsPerSec, cfg.DownloadBurst)
	return ingest.NewAdapter(a.registry, a.fileRepo, a.store, downloader, a.bus, ingest.AdapterConfig{
		DefaultDepartment: cfg.DefaultDepartment,
		MaxFileSize:       a.cfg.Storage.MaxFileSize,
	}, a.logger)
}

func (a *app) newPool() *ingest.Pool {
	cfg := a.cfg.Ingest
	return ingest.NewPool(a.newAdapter(), ingest.PoolConfig{Workers: cfg.Workers, QueueSize: cfg.QueueSize}, a.logger)
}

func (a *app) newCollector(sink collector.Sink, endpoint string) (*collector.Listener, *discord.Gateway, error) {
	gw, err := discord.NewGateway(a.cfg.Discord.Token, a.logger.With("component", "collector"))
	if err != nil {
		return nil, nil, err
	}
	listener := collector.NewListener(sink, collector.Config{
		AdminRoleName: a.cfg.Discord.AdminRoleName,
		APIEndpoint:   endpoint,
	}, a.logger.With("component", "collector"))
	return listener, gw, nil
}

// runCollector runs the listener until ctx ends. A panic, whether on this
// goroutine or in an event handler, is logged and the collector stays down;
// the caller keeps running.
func runCollector(ctx context.Context, l *collector.Listener, gw collector.Gateway, lg *slog.Logger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			lg.Error("collector crashed", "panic", rec)
			err = fmt.Errorf("collector panic: %v", rec)
		}
	}()
	return l.Run(ctx, gw)
}

func (a *app) close() {
	if a.bus != nil {
		a.bus.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			a.logger.Warn("failed to close resource", "error", err)
		}
	}
}

func localEndpoint(store *storage.LocalStore) string {
	return fmt.Sprintf("local ingestion into %s", filepath.Clean(store.Root()))
}
