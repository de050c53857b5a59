package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nusantara-hq/gapura/internal/catalog"
	"github.com/nusantara-hq/gapura/internal/platform/httpx"
	"github.com/nusantara-hq/gapura/internal/shared"
)

// Handler serves the permission catalog and per-user effective permissions.
type Handler struct {
	logger   *slog.Logger
	resolver *Resolver
	mw       Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, resolver *Resolver, mw Middleware) *Handler {
	return &Handler{logger: logger, resolver: resolver, mw: mw}
}

// MountRoutes registers rbac routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/me/permissions", h.myPermissions)
		r.With(h.mw.RequirePermission(catalog.ActionRead, "permission")).Get("/permissions", h.listCatalog)
	})
}

type permissionView struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Module      string `json:"module"`
	Description string `json:"description"`
}

type myPermissionsResponse struct {
	Permissions []string `json:"permissions"`
	Modules     []string `json:"modules"`
	Scope       string   `json:"scope"`
	Level       int      `json:"level"`
}

// myPermissions returns the expanded permission and module lists used by
// clients to gate their UI. Boolean checks on the server never consult
// this expansion.
func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "access denied")
		return
	}
	perms, modules, err := h.resolver.EffectivePermissions(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("effective permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	scope, level, err := h.resolver.RoleScope(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("role scope", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, myPermissionsResponse{
		Permissions: perms,
		Modules:     modules,
		Scope:       scope,
		Level:       level,
	})
}

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	entries := catalog.List()
	out := make([]permissionView, len(entries))
	for i, entry := range entries {
		out[i] = permissionView{
			ID:          entry.ID,
			Action:      entry.Action,
			Resource:    entry.Resource,
			Module:      entry.Module,
			Description: entry.Description,
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out, "modules": catalog.Modules()})
}
