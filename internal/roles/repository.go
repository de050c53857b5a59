package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nusantara-hq/gapura/internal/platform/db"
	"github.com/nusantara-hq/gapura/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context) ([]Role, error)
	GetByID(ctx context.Context, id int64) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, role Role) (*Role, error)
	Update(ctx context.Context, role Role) (*Role, error)
	Delete(ctx context.Context, id int64) error
	CountUsers(ctx context.Context, roleID int64) (int64, error)
	DeleteIfUnused(ctx context.Context, id int64) error
}

const roleColumns = `id, name, description, permissions, modules, level, is_system, bypass_all_checks, scope, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*Role, error) {
	var (
		role        Role
		permsJSON   []byte
		modulesJSON []byte
	)
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &permsJSON, &modulesJSON, &role.Level, &role.IsSystem, &role.BypassAllChecks, &role.Scope, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(permsJSON, &role.Permissions); err != nil {
		return nil, fmt.Errorf("roles: decode permissions for %q: %w", role.Name, err)
	}
	if err := json.Unmarshal(modulesJSON, &role.Modules); err != nil {
		return nil, fmt.Errorf("roles: decode modules for %q: %w", role.Name, err)
	}
	return &role, nil
}

// List returns all roles ordered by level descending then name.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY level DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetByID fetches a role by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

// GetByName fetches a role by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (*Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

// Create inserts a new role. A unique violation on the name surfaces as
// shared.ErrDuplicateName.
func (r *Repository) Create(ctx context.Context, role Role) (*Role, error) {
	permsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return nil, err
	}
	modulesJSON, err := json.Marshal(role.Modules)
	if err != nil {
		return nil, err
	}
	created, err := scanRole(r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description, permissions, modules, level, is_system, bypass_all_checks, scope)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+roleColumns,
		role.Name, role.Description, permsJSON, modulesJSON, role.Level, role.IsSystem, role.BypassAllChecks, role.Scope))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: role %q", shared.ErrDuplicateName, role.Name)
		}
		return nil, err
	}
	return created, nil
}

// Update writes the full role row.
func (r *Repository) Update(ctx context.Context, role Role) (*Role, error) {
	permsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return nil, err
	}
	modulesJSON, err := json.Marshal(role.Modules)
	if err != nil {
		return nil, err
	}
	updated, err := scanRole(r.pool.QueryRow(ctx,
		`UPDATE roles
		 SET name = $2, description = $3, permissions = $4, modules = $5, level = $6, is_system = $7, bypass_all_checks = $8, scope = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+roleColumns,
		role.ID, role.Name, role.Description, permsJSON, modulesJSON, role.Level, role.IsSystem, role.BypassAllChecks, role.Scope))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: role %q", shared.ErrDuplicateName, role.Name)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a role by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountUsers reports how many users reference the role.
func (r *Repository) CountUsers(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteIfUnused removes a role only when no user references it, checked and
// deleted inside one transaction so a concurrent assignment cannot slip in
// between the count and the delete.
func (r *Repository) DeleteIfUnused(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var count int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, id).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d user(s)", shared.ErrRoleInUse, count)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ RepositoryPort = (*Repository)(nil)
