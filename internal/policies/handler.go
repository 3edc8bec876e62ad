package policies

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-claims/atlas-claims/internal/authz"
	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// Handler exposes the insurance policy endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Guard
	validate *validator.Validate
}

// NewHandler builds a policies Handler.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(),
	}
}

// MountRoutes registers insurance policy routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require("policy:view", nil)).Get("/", h.list)
	r.With(h.guard.Require("policy:create", nil)).Post("/", h.create)

	r.Route("/{id}", func(r chi.Router) {
		r.With(h.guard.Require("policy:view", h.loadPolicy)).Get("/", h.get)
		r.With(h.guard.Require("policy:edit", h.loadPolicy)).Patch("/", h.update)
	})
}

func (h *Handler) loadPolicy(r *http.Request) (map[string]any, error) {
	policy, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return policy.Attributes(), nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	items, pagination, err := h.service.List(r.Context(), ListFilter{
		MemberID: q.Get("member_id"),
		Status:   Status(q.Get("status")),
		Region:   q.Get("region"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	out := make([]Response, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, ListResponse{Items: out, Pagination: pagination})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req CreatePolicyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	policy, err := h.service.Create(r.Context(), sub, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(policy))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(policy))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req UpdatePolicyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	policy, err := h.service.Update(r.Context(), sub, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(policy))
}
