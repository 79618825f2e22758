package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/filehub/internal/auth"
	authSqlite "github.com/frahmantamala/filehub/internal/auth/sqlite"
	"github.com/frahmantamala/filehub/internal/dashboard"
	dashboardSqlite "github.com/frahmantamala/filehub/internal/dashboard/sqlite"
	"github.com/frahmantamala/filehub/internal/department"
	departmentSqlite "github.com/frahmantamala/filehub/internal/department/sqlite"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/ingest"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/internal/transport/rest"
	"github.com/frahmantamala/filehub/internal/transport/swagger"
	"github.com/frahmantamala/filehub/internal/user"
	userSqlite "github.com/frahmantamala/filehub/internal/user/sqlite"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the web server and, when enabled, the chat collector.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

func startHTTPServer() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	lg := a.logger

	pool := a.newPool()

	departmentService := department.NewService(departmentSqlite.NewDepartmentRepository(a.registry), lg)
	userService := user.NewService(userSqlite.NewUserRepository(a.registry), departmentService, cfg.Security.BCryptCost, lg)
	authRepo := authSqlite.NewAuthRepository(a.registry)
	authService := auth.NewService(
		authRepo,
		auth.NewJWTTokenGenerator(cfg.Security.SessionSecret, cfg.Security.SessionTTL),
		lg,
	)
	fileService := file.NewService(a.fileRepo, a.store, departmentService, a.bus, cfg.Storage.MaxFileSize, lg)
	dashboardService := dashboard.NewService(dashboardSqlite.NewDashboardRepository(a.registry), lg)

	var collectorStatus rest.CollectorStatus
	if cfg.Discord.Enabled {
		listener, gw, err := a.newCollector(pool, localEndpoint(a.store))
		if err != nil {
			return fmt.Errorf("init collector: %w", err)
		}
		collectorStatus = listener
		go func() {
			if err := runCollector(ctx, listener, gw, lg); err != nil {
				lg.Error("collector stopped", "error", err)
				return
			}
			lg.Info("collector stopped")
		}()
	}

	base := transport.NewBaseHandler(lg)
	handlers := rest.Handlers{
		Auth: auth.NewHandler(base, authService, auth.CookieConfig{
			Name:   cfg.Security.CookieName,
			Secure: cfg.Security.CookieSecure,
		}),
		User:       user.NewHandler(base, userService),
		Department: department.NewHandler(base, departmentService),
		Dashboard:  dashboard.NewHandler(base, dashboardService),
		File:       file.NewHandler(base, fileService, cfg.Storage.MaxFileSize),
		Ingest:     ingest.NewHandler(base, a.newAdapter(), cfg.Security.APIKey),
		Health:     rest.NewHealthHandler(a.registry, collectorStatus),
	}

	if _, err := swagger.LoadDocument(ctx, cfg.Server.OpenAPIPath); err != nil {
		lg.Warn("openapi document unavailable", "path", cfg.Server.OpenAPIPath, "error", err)
	}

	routerCfg := rest.RouterConfig{OpenAPIPath: cfg.Server.OpenAPIPath}
	if cfg.Observability.Metrics.Enabled {
		routerCfg.MetricsPath = cfg.Observability.Metrics.Path
	}
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, handlers, auth.NewRBACAuthorization(auth.NewRoleChecker(), lg).WithRoleSource(authRepo), a.registry.Middleware, routerCfg, lg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("Starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		lg.Info("Received signal, shutting down...")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = pool.Shutdown(context.Background())
			return fmt.Errorf("server failed to start: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server shutdown error", "error", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		lg.Warn("ingest pool did not drain before timeout", "error", err)
	}

	lg.Info("Server stopped")
	return nil
}
