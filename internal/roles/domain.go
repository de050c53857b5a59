package roles

import "time"

// Scope narrows which records a granted permission applies to. Row-level
// enforcement belongs to the route handlers, not the resolver.
type Scope string

// Recognised scope tags.
const (
	ScopeAll        Scope = "all"
	ScopeDepartment Scope = "department"
	ScopeOwn        Scope = "own"
)

// Valid reports whether the scope tag is one of the recognised values.
func (s Scope) Valid() bool {
	switch s {
	case ScopeAll, ScopeDepartment, ScopeOwn:
		return true
	}
	return false
}

// Role is a named bundle of authority. Permissions and Modules are stored
// as JSONB arrays of strings; one canonical shape, validated at every
// write boundary.
type Role struct {
	ID              int64
	Name            string
	Description     string
	Permissions     []string
	Modules         []string
	Level           int
	IsSystem        bool
	BypassAllChecks bool
	Scope           Scope
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SuperAdminName is the sentinel system role carrying the bypass flag.
const SuperAdminName = "Super Administrator"
