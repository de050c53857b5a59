package shared

import "context"

// Claims carries the verified session credential for one request.
// Permissions and modules are deliberately absent; they are resolved
// server-side on every check.
type Claims struct {
	UserID     int64
	RoleID     int64
	RoleLevel  int
	IsActive   bool
	IsVerified bool
}

type claimsContextKey struct{}

// ContextWithClaims stores verified claims in context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts verified claims from context.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}
