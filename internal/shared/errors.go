package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateName occurs when a unique name is already taken.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrImmutableSystemRole occurs on rename/delete of a built-in role.
	ErrImmutableSystemRole = errors.New("system role is immutable")
	// ErrRoleInUse occurs when deleting a role still referenced by users.
	ErrRoleInUse = errors.New("role still assigned to users")
	// ErrUnknownPermission occurs when a permission string is not in the catalog.
	ErrUnknownPermission = errors.New("unknown permission")
	// ErrMalformedPermission occurs when a permission string cannot be parsed.
	ErrMalformedPermission = errors.New("malformed permission")
	// ErrThrottled occurs when login attempts exceed the allowed rate.
	ErrThrottled = errors.New("too many attempts")
)
