package claims

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

// Handler exposes the claims endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Guard
	validate *validator.Validate
}

// NewHandler builds a claims Handler.
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

// MountRoutes registers claim routes. Every route runs a policy check;
// item routes load the claim so rules can inspect its attributes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require("claim:view", nil)).Get("/", h.list)
	r.With(h.guard.Require("claim:view", nil)).Get("/summary", h.summary)
	r.With(h.guard.Require("claim:create", nil)).Post("/", h.create)

	r.Route("/{id}", func(r chi.Router) {
		r.With(h.guard.Require("claim:view", h.loadClaim)).Get("/", h.get)
		r.With(h.guard.Require("claim:edit", h.loadClaim)).Patch("/", h.update)
		r.With(h.guard.Require("claim:delete", h.loadClaim)).Delete("/", h.remove)
		r.With(h.guard.Require("claim:approve", h.loadClaim)).Post("/status", h.transition)
	})
}

// loadClaim fetches the target claim's attributes for policy evaluation.
func (h *Handler) loadClaim(r *http.Request) (map[string]any, error) {
	id := chi.URLParam(r, "id")
	claim, err := h.service.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return claim.Attributes(), nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	filter := ListFilter{
		Status:  Status(q.Get("status")),
		Region:  q.Get("region"),
		OwnerID: q.Get("owner_id"),
		Page:    page,
		PerPage: perPage,
	}

	items, pagination, err := h.service.List(r.Context(), filter)
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

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Summary(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req CreateClaimRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	claim, err := h.service.Create(r.Context(), sub, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(claim))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	claim, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(claim))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req UpdateClaimRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	claim, err := h.service.Update(r.Context(), sub, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(claim))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req StatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	claim, err := h.service.Transition(r.Context(), sub, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(claim))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(r.Context(), sub, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
