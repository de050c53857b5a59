package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/nusantara-hq/gapura/internal/observability"
	"github.com/nusantara-hq/gapura/internal/platform/httpx"
	"github.com/nusantara-hq/gapura/internal/shared"
)

// TokenVerifier validates a bearer credential and returns its claims.
// Implemented by the auth token issuer.
type TokenVerifier interface {
	Verify(token string) (*shared.Claims, error)
}

// Middleware wires authentication and authorization for HTTP handlers.
type Middleware struct {
	Verifier TokenVerifier
	Resolver *Resolver
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// RequireAuth verifies the Authorization bearer token and stores claims in
// the request context. Any verification failure is a uniform 401: the
// response never reveals whether the account exists or why the token failed.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "access denied")
			return
		}
		claims, err := m.Verifier.Verify(raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("token rejected", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "access denied")
			return
		}
		ctx := shared.ContextWithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission ensures the current user is authorized for (action,
// resource). Denials name the missing permission for legitimate debugging.
func (m Middleware) RequirePermission(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := shared.ClaimsFromContext(r.Context())
			if claims == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "access denied")
				return
			}
			allowed, err := m.Resolver.HasPermission(r.Context(), claims.UserID, action, resource)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("permission check", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			m.observe(allowed)
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission "+action+":"+resource)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModule ensures the current user's role grants access to an entire
// functional module.
func (m Middleware) RequireModule(module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := shared.ClaimsFromContext(r.Context())
			if claims == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "access denied")
				return
			}
			allowed, err := m.Resolver.HasModuleAccess(r.Context(), claims.UserID, module)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("module check", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			m.observe(allowed)
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing module access "+module)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) observe(allowed bool) {
	if m.Metrics != nil {
		m.Metrics.AuthzDecision(allowed)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
