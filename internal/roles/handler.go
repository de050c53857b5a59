package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nusantara-hq/gapura/internal/catalog"
	"github.com/nusantara-hq/gapura/internal/platform/httpx"
	"github.com/nusantara-hq/gapura/internal/rbac"
	"github.com/nusantara-hq/gapura/internal/shared"
)

// Handler manages role administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuth)
		r.With(h.rbac.RequirePermission(catalog.ActionRead, "role")).Get("/", h.list)
		r.With(h.rbac.RequirePermission(catalog.ActionRead, "role")).Get("/{id}", h.get)
		r.With(h.rbac.RequirePermission(catalog.ActionManage, "role")).Post("/", h.create)
		r.With(h.rbac.RequirePermission(catalog.ActionManage, "role")).Patch("/{id}", h.update)
		r.With(h.rbac.RequirePermission(catalog.ActionManage, "role")).Delete("/{id}", h.delete)
	})
}

type roleView struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Permissions     []string `json:"permissions"`
	Modules         []string `json:"modules"`
	Level           int      `json:"level"`
	IsSystem        bool     `json:"is_system"`
	BypassAllChecks bool     `json:"bypass_all_checks"`
	Scope           string   `json:"scope"`
	UserCount       *int64   `json:"user_count,omitempty"`
}

func toView(role Role) roleView {
	return roleView{
		ID:              role.ID,
		Name:            role.Name,
		Description:     role.Description,
		Permissions:     role.Permissions,
		Modules:         role.Modules,
		Level:           role.Level,
		IsSystem:        role.IsSystem,
		BypassAllChecks: role.BypassAllChecks,
		Scope:           string(role.Scope),
	}
}

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Modules     []string `json:"modules"`
	Level       int      `json:"level" validate:"gte=0"`
	Scope       string   `json:"scope" validate:"omitempty,oneof=all department own"`
}

type updateRoleRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
	Modules     *[]string `json:"modules"`
	Level       *int      `json:"level"`
	Scope       *string   `json:"scope" validate:"omitempty,oneof=all department own"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleView, len(roles))
	for i, role := range roles {
		out[i] = toView(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	view := toView(*role)
	if count, err := h.service.CountUsers(r.Context(), id); err == nil {
		view.UserCount = &count
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.Create(r.Context(), actorID(r), CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Modules:     req.Modules,
		Level:       req.Level,
		Scope:       Scope(req.Scope),
	})
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(*role))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	params := UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Modules:     req.Modules,
		Level:       req.Level,
	}
	if req.Scope != nil {
		scope := Scope(*req.Scope)
		params.Scope = &scope
	}
	role, err := h.service.Update(r.Context(), actorID(r), id, params)
	if err != nil {
		h.logger.Error("update role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(*role))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), actorID(r), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorID(r *http.Request) int64 {
	if claims := shared.ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return 0
}
