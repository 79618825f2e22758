package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/filehub/internal/auth"
	"github.com/frahmantamala/filehub/internal/dashboard"
	"github.com/frahmantamala/filehub/internal/department"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/ingest"
	"github.com/frahmantamala/filehub/internal/metrics"
	"github.com/frahmantamala/filehub/internal/transport/middleware"
	"github.com/frahmantamala/filehub/internal/transport/swagger"
	"github.com/frahmantamala/filehub/internal/user"
	"github.com/go-chi/chi"
)

type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Department *department.Handler
	Dashboard  *dashboard.Handler
	File       *file.Handler
	Ingest     *ingest.Handler
	Health     *HealthHandler
}

type RouterConfig struct {
	OpenAPIPath string
	// MetricsPath is empty when metrics are disabled.
	MetricsPath string
}

// RegisterAllRoutes wires the middleware chain and every route. units opens
// the per-request unit of work (database.Registry.Middleware).
func RegisterAllRoutes(router *chi.Mux, h Handlers, rbac *auth.RBACAuthorization, units func(http.Handler) http.Handler, cfg RouterConfig, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(metrics.Middleware)
	router.Use(units)
	router.Use(h.Auth.SessionMiddleware)
	router.Use(middleware.UserContext)

	router.Get(swagger.SpecRoute, swagger.SpecHandler(cfg.OpenAPIPath))
	router.Handle("/swagger/*", swagger.Handler())
	if cfg.MetricsPath != "" {
		router.Handle(cfg.MetricsPath, metrics.Handler())
	}

	router.Get("/health", h.Health.healthCheckHandler)
	router.Get("/ping", h.Health.pingHandler)

	router.Get("/", h.Auth.Index)
	router.Get("/login", h.Auth.LoginPage)
	router.Post("/login", h.Auth.Login)
	router.Get("/logout", h.Auth.Logout)

	// collector payloads authenticate with the API key instead of a session
	router.Post("/api/files", h.Ingest.ReceiveMessage)

	router.Group(func(pr chi.Router) {
		pr.Use(h.Auth.RequireLogin)

		pr.Get("/home", h.Dashboard.Dashboard)
		pr.Get("/dashboard", h.Dashboard.Dashboard)

		pr.Get("/settings", h.User.Settings)
		pr.Get("/update-profile", h.User.Settings)
		pr.Post("/update-profile", h.User.UpdateProfile)

		pr.Get("/departments", h.Department.GetDepartments)

		pr.Get("/files", h.File.ListFiles)
		pr.Post("/upload", h.File.Upload)
		pr.Get("/download/{filename}", h.File.Download)

		pr.Group(func(ur chi.Router) {
			ur.Use(rbac.RequireUserManagement())
			ur.Get("/register", h.User.RegisterForm)
			ur.Post("/register", h.User.Register)
			ur.Get("/manage-users", h.User.ManageUsers)
			ur.Get("/edit_user/{id}", h.User.EditUserForm)
			ur.Post("/edit_user/{id}", h.User.EditUser)
			ur.Post("/delete_user/{id}", h.User.DeleteUser)
		})

		pr.Group(func(fr chi.Router) {
			fr.Use(rbac.RequireFileManagement())
			fr.Get("/edit-file/{id}", h.File.EditFileForm)
			fr.Post("/update-file/{id}", h.File.UpdateFile)
			fr.Post("/delete-file/{id}", h.File.DeleteFile)
		})
	})
}
