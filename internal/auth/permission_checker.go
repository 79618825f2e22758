package auth

import (
	"context"

	"github.com/frahmantamala/filehub/internal"
)

// DefaultRoleChecker answers access questions from a principal's role.
type DefaultRoleChecker struct{}

func NewRoleChecker() *DefaultRoleChecker {
	return &DefaultRoleChecker{}
}

func (c *DefaultRoleChecker) IsAdminCtx(ctx context.Context, role string) (bool, error) {
	return c.IsAdmin(role), nil
}

func (c *DefaultRoleChecker) CanManageUsersCtx(ctx context.Context, role string) (bool, error) {
	return c.CanManageUsers(role), nil
}

func (c *DefaultRoleChecker) CanManageFilesCtx(ctx context.Context, role string) (bool, error) {
	return c.CanManageFiles(role), nil
}

func (c *DefaultRoleChecker) IsAdmin(role string) bool {
	return role == internal.RoleAdmin
}

// Only admins manage accounts and edit or delete file records.
func (c *DefaultRoleChecker) CanManageUsers(role string) bool {
	return c.IsAdmin(role)
}

func (c *DefaultRoleChecker) CanManageFiles(role string) bool {
	return c.IsAdmin(role)
}
