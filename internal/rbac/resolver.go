package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/nusantara-hq/gapura/internal/catalog"
	"github.com/nusantara-hq/gapura/internal/shared"
)

// SuperGrant permission strings that match any request.
const (
	GrantAll    = "*:*"
	GrantManage = "manage:*"
)

// Resolver expands a user's role into authorization decisions. Matching is
// additive OR only; no permission in a set can revoke another.
type Resolver struct {
	dir    Directory
	logger *slog.Logger
	sf     singleflight.Group
}

// NewResolver constructs a Resolver.
func NewResolver(dir Directory, logger *slog.Logger) *Resolver {
	return &Resolver{dir: dir, logger: logger}
}

type snapshot struct {
	user UserRecord
	role RoleRecord
}

// load fetches user and role, collapsing concurrent identical lookups
// within the process. Nothing is retained after the call returns.
func (r *Resolver) load(ctx context.Context, userID int64) (*snapshot, error) {
	v, err, _ := r.sf.Do("user:"+strconv.FormatInt(userID, 10), func() (any, error) {
		user, err := r.dir.UserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		role, err := r.dir.RoleByID(ctx, user.RoleID)
		if err != nil {
			return nil, err
		}
		return &snapshot{user: user, role: role}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

// HasPermission reports whether the user's role grants (action, resource)
// in principle. Scope narrowing to specific rows stays with the caller.
// Missing user/role or an inactive user denies without error.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, action, resource string) (bool, error) {
	snap, err := r.load(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !snap.user.IsActive {
		return false, nil
	}
	if snap.role.BypassAllChecks {
		return true, nil
	}
	action = strings.ToLower(strings.TrimSpace(action))
	resource = strings.ToLower(strings.TrimSpace(resource))
	for _, p := range snap.role.Permissions {
		ok, err := match(p, action, resource)
		if err != nil {
			// One corrupt entry must not lock out an otherwise valid role.
			if r.logger != nil {
				r.logger.Warn("skipping malformed permission",
					slog.String("permission", p),
					slog.String("role", snap.role.Name))
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasModuleAccess reports whether the role's module list includes the
// module. The bypass role is granted every module unconditionally.
func (r *Resolver) HasModuleAccess(ctx context.Context, userID int64, module string) (bool, error) {
	snap, err := r.load(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !snap.user.IsActive {
		return false, nil
	}
	if snap.role.BypassAllChecks {
		return true, nil
	}
	module = strings.ToLower(strings.TrimSpace(module))
	for _, m := range snap.role.Modules {
		if strings.EqualFold(m, module) {
			return true, nil
		}
	}
	return false, nil
}

// RoleScope returns the role's scope tag and level for callers doing
// row-level filtering and display.
func (r *Resolver) RoleScope(ctx context.Context, userID int64) (scope string, level int, err error) {
	snap, err := r.load(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	return snap.role.Scope, snap.role.Level, nil
}

// EffectivePermissions expands the role's permission set against the
// catalog, wildcards resolved, for client-side UI gating. The boolean
// checks above never use this eager expansion.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64) ([]string, []string, error) {
	snap, err := r.load(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !snap.user.IsActive {
		return []string{}, []string{}, nil
	}
	if snap.role.BypassAllChecks {
		return allCatalogIDs(), catalog.Modules(), nil
	}

	set := make(map[string]struct{})
	for _, p := range snap.role.Permissions {
		action, resource, _, err := catalog.Parse(p)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("skipping malformed permission",
					slog.String("permission", p),
					slog.String("role", snap.role.Name))
			}
			continue
		}
		switch {
		case p == GrantAll || p == GrantManage:
			for _, id := range allCatalogIDs() {
				set[id] = struct{}{}
			}
		case action == catalog.Wildcard && resource == catalog.Wildcard:
			for _, id := range allCatalogIDs() {
				set[id] = struct{}{}
			}
		case action == catalog.Wildcard:
			for _, entry := range catalog.List() {
				if entry.Resource == resource {
					set[entry.ID] = struct{}{}
				}
			}
		case resource == catalog.Wildcard:
			for _, entry := range catalog.List() {
				if entry.Action == action {
					set[entry.ID] = struct{}{}
				}
			}
		default:
			set[action+":"+resource] = struct{}{}
		}
	}
	perms := make([]string, 0, len(set))
	for id := range set {
		perms = append(perms, id)
	}
	sort.Strings(perms)

	modules := make([]string, len(snap.role.Modules))
	copy(modules, snap.role.Modules)
	return perms, modules, nil
}

// match tests one stored permission string against the request.
func match(perm, action, resource string) (bool, error) {
	perm = strings.ToLower(strings.TrimSpace(perm))
	if perm == GrantAll || perm == GrantManage {
		return true, nil
	}
	pAction, pResource, _, err := catalog.Parse(perm)
	if err != nil {
		return false, fmt.Errorf("rbac: %w", err)
	}
	switch {
	case pAction == action && pResource == resource:
		return true, nil
	case pAction == catalog.Wildcard && pResource == resource:
		return true, nil
	case pAction == action && pResource == catalog.Wildcard:
		return true, nil
	}
	return false, nil
}

func allCatalogIDs() []string {
	entries := catalog.List()
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	return ids
}
