package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
)

// PoliciesHandler exposes the rule-management API. Mutations touch the
// live in-memory engine; nothing is persisted, matching the reloadable
// external-store assumption.
type PoliciesHandler struct {
	logger *slog.Logger
	engine *Engine
	guard  Guard
}

// NewPoliciesHandler builds the admin policy handler.
func NewPoliciesHandler(logger *slog.Logger, engine *Engine, guard Guard) *PoliciesHandler {
	return &PoliciesHandler{logger: logger, engine: engine, guard: guard}
}

// MountRoutes registers policy management routes.
func (h *PoliciesHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(PermAdminSystemConfig))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

func (h *PoliciesHandler) list(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"policies": h.engine.Policies()})
}

func (h *PoliciesHandler) create(w http.ResponseWriter, r *http.Request) {
	var rule PolicyRule
	if err := httpx.DecodeJSON(r, &rule); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.engine.AddPolicy(rule); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Rule", err.Error())
		return
	}
	h.logger.Info("policy rule added", slog.String("rule", rule.ID))
	httpx.JSON(w, http.StatusCreated, rule)
}

func (h *PoliciesHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var fields map[string]any
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.engine.UpdatePolicy(id, fields); err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no policy with id "+id)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("policy rule updated", slog.String("rule", id))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *PoliciesHandler) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.engine.RemovePolicy(id)
	h.logger.Info("policy rule removed", slog.String("rule", id))
	w.WriteHeader(http.StatusNoContent)
}
