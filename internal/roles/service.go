package roles

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nusantara-hq/gapura/internal/catalog"
	"github.com/nusantara-hq/gapura/internal/shared"
)

// AuditRecorder persists an audit trail entry for a role mutation.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles role business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateParams carries fields for a new role.
type CreateParams struct {
	Name        string
	Description string
	Permissions []string
	Modules     []string
	Level       int
	Scope       Scope
}

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	Name        *string
	Description *string
	Permissions *[]string
	Modules     *[]string
	Level       *int
	Scope       *Scope
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByName fetches a role by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (*Role, error) {
	return s.repo.GetByName(ctx, strings.TrimSpace(name))
}

// CountUsers reports how many users reference the role.
func (s *Service) CountUsers(ctx context.Context, id int64) (int64, error) {
	return s.repo.CountUsers(ctx, id)
}

// Create validates and persists a custom role. Permission strings are
// rejected at write time when the catalog does not know them.
func (s *Service) Create(ctx context.Context, actorID int64, params CreateParams) (*Role, error) {
	role := Role{
		Name:        strings.TrimSpace(params.Name),
		Description: strings.TrimSpace(params.Description),
		Permissions: normalizeList(params.Permissions),
		Modules:     normalizeList(params.Modules),
		Level:       params.Level,
		Scope:       params.Scope,
	}
	if role.Name == "" {
		return nil, fmt.Errorf("roles: name required")
	}
	if role.Scope == "" {
		role.Scope = ScopeAll
	}
	if !role.Scope.Valid() {
		return nil, fmt.Errorf("roles: invalid scope %q", role.Scope)
	}
	if role.Level < 0 {
		return nil, fmt.Errorf("roles: level must not be negative")
	}
	if err := validatePermissions(role.Permissions); err != nil {
		return nil, err
	}
	if err := validateModules(role.Modules); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, role)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "role.create", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// Update applies a partial update. Renaming a system role is refused;
// everything else on a system role is left to administrators and repaired
// by the sync catalog if it drifts.
func (s *Service) Update(ctx context.Context, actorID int64, id int64, params UpdateParams) (*Role, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, fmt.Errorf("roles: name required")
		}
		if role.IsSystem && name != role.Name {
			return nil, fmt.Errorf("%w: cannot rename %q", shared.ErrImmutableSystemRole, role.Name)
		}
		role.Name = name
	}
	if params.Description != nil {
		role.Description = strings.TrimSpace(*params.Description)
	}
	if params.Permissions != nil {
		perms := normalizeList(*params.Permissions)
		if err := validatePermissions(perms); err != nil {
			return nil, err
		}
		role.Permissions = perms
	}
	if params.Modules != nil {
		modules := normalizeList(*params.Modules)
		if err := validateModules(modules); err != nil {
			return nil, err
		}
		role.Modules = modules
	}
	if params.Level != nil {
		if *params.Level < 0 {
			return nil, fmt.Errorf("roles: level must not be negative")
		}
		role.Level = *params.Level
	}
	if params.Scope != nil {
		if !params.Scope.Valid() {
			return nil, fmt.Errorf("roles: invalid scope %q", *params.Scope)
		}
		role.Scope = *params.Scope
	}

	updated, err := s.repo.Update(ctx, *role)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "role.update", updated.ID, map[string]any{"name": updated.Name})
	return updated, nil
}

// Delete removes a custom role. System roles are immutable and roles still
// referenced by users are kept.
func (s *Service) Delete(ctx context.Context, actorID int64, id int64) error {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w: cannot delete %q", shared.ErrImmutableSystemRole, role.Name)
	}
	if err := s.repo.DeleteIfUnused(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "role.delete", id, map[string]any{"name": role.Name})
	return nil
}

// recordAudit is best effort; a failed audit write never fails the mutation.
func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, roleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
}

func validatePermissions(perms []string) error {
	for _, p := range perms {
		if err := catalog.Validate(p); err != nil {
			return err
		}
	}
	return nil
}

func validateModules(modules []string) error {
	known := make(map[string]struct{})
	for _, m := range catalog.Modules() {
		known[m] = struct{}{}
	}
	for _, m := range modules {
		if _, ok := known[m]; !ok {
			return fmt.Errorf("%w: module %q", shared.ErrUnknownPermission, m)
		}
	}
	return nil
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
