package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
)

type RoleAuthorizer interface {
	IsAdminCtx(ctx context.Context, role string) (bool, error)
	CanManageUsersCtx(ctx context.Context, role string) (bool, error)
	CanManageFilesCtx(ctx context.Context, role string) (bool, error)
}

// RoleSource reports the role a user holds right now. found is false once the
// account has been deleted.
type RoleSource interface {
	CurrentRole(ctx context.Context, userID int64) (role string, found bool, err error)
}

type RBACAuthorization struct {
	*transport.BaseHandler
	authorizer RoleAuthorizer
	roles      RoleSource
	logger     *slog.Logger
}

func NewRBACAuthorization(authorizer RoleAuthorizer, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		authorizer:  authorizer,
		logger:      logger,
	}
}

// WithRoleSource makes every check use the stored role instead of the one in
// the session token, so demotions and deletions apply immediately.
func (ra *RBACAuthorization) WithRoleSource(roles RoleSource) *RBACAuthorization {
	ra.roles = roles
	return ra
}

func (ra *RBACAuthorization) currentRole(ctx context.Context, p *internal.Principal) (string, bool, error) {
	if ra.roles == nil {
		return p.Role, true, nil
	}
	return ra.roles.CurrentRole(ctx, p.ID)
}

func (ra *RBACAuthorization) require(name string, check func(ctx context.Context, role string) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				ra.HandleServiceError(w, internal.ErrInvalidToken)
				return
			}

			role, found, err := ra.currentRole(r.Context(), p)
			if err != nil {
				ra.logger.ErrorContext(r.Context(), "role lookup failed", "check", name, "error", err, "user_id", p.ID)
				ra.WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !found {
				ra.logger.WarnContext(r.Context(), "session of a deleted user", "user_id", p.ID, "path", r.URL.Path)
				ra.HandleServiceError(w, internal.ErrInvalidToken)
				return
			}

			allowed, err := check(r.Context(), role)
			if err != nil {
				ra.logger.ErrorContext(r.Context(), "authorization check failed", "check", name, "error", err, "user_id", p.ID)
				ra.WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if !allowed {
				ra.logger.WarnContext(r.Context(), "access denied",
					"check", name,
					"user_id", p.ID,
					"role", role,
					"path", r.URL.Path)
				ra.HandleServiceError(w, internal.ErrAdminRequired)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.require("admin", ra.authorizer.IsAdminCtx)
}

func (ra *RBACAuthorization) RequireUserManagement() func(http.Handler) http.Handler {
	return ra.require("manage_users", ra.authorizer.CanManageUsersCtx)
}

func (ra *RBACAuthorization) RequireFileManagement() func(http.Handler) http.Handler {
	return ra.require("manage_files", ra.authorizer.CanManageFilesCtx)
}
