package rbac

import "context"

// UserRecord is the resolver's view of a user. It is a value type validated
// at the persistence boundary and passed through all resolution logic as-is.
type UserRecord struct {
	ID       int64
	RoleID   int64
	IsActive bool
}

// RoleRecord is the resolver's view of a role.
type RoleRecord struct {
	ID              int64
	Name            string
	Permissions     []string
	Modules         []string
	Level           int
	BypassAllChecks bool
	Scope           string
}

// Directory loads the current user and role state. Every authorization
// check re-reads the store so role changes take effect immediately; there
// is no cache layer here on purpose.
type Directory interface {
	UserByID(ctx context.Context, id int64) (UserRecord, error)
	RoleByID(ctx context.Context, id int64) (RoleRecord, error)
}
