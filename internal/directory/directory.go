// Package directory adapts the user and role stores to the resolver's
// read-only view, so rbac stays free of persistence imports.
package directory

import (
	"context"

	"github.com/nusantara-hq/gapura/internal/rbac"
	"github.com/nusantara-hq/gapura/internal/roles"
	"github.com/nusantara-hq/gapura/internal/users"
)

// Store implements rbac.Directory on top of the user and role services.
type Store struct {
	users *users.Service
	roles *roles.Service
}

// New constructs a Store.
func New(userService *users.Service, roleService *roles.Service) *Store {
	return &Store{users: userService, roles: roleService}
}

// UserByID loads the resolver's view of one user.
func (s *Store) UserByID(ctx context.Context, id int64) (rbac.UserRecord, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return rbac.UserRecord{}, err
	}
	return rbac.UserRecord{ID: user.ID, RoleID: user.RoleID, IsActive: user.IsActive}, nil
}

// RoleByID loads the resolver's view of one role.
func (s *Store) RoleByID(ctx context.Context, id int64) (rbac.RoleRecord, error) {
	role, err := s.roles.Get(ctx, id)
	if err != nil {
		return rbac.RoleRecord{}, err
	}
	return rbac.RoleRecord{
		ID:              role.ID,
		Name:            role.Name,
		Permissions:     role.Permissions,
		Modules:         role.Modules,
		Level:           role.Level,
		BypassAllChecks: role.BypassAllChecks,
		Scope:           string(role.Scope),
	}, nil
}

var _ rbac.Directory = (*Store)(nil)
