package members

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

// Handler exposes the members endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    authz.Guard
	validate *validator.Validate
}

// NewHandler builds a members Handler.
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

// MountRoutes registers member routes. The SSN reveal route rides the
// same action as viewing but loads the member so the compliance policy
// can inspect data_classification.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require("member:view", nil)).Get("/", h.list)
	r.With(h.guard.Require("member:create", nil)).Post("/", h.create)

	r.Route("/{id}", func(r chi.Router) {
		r.With(h.guard.Require("member:view", h.loadMember)).Get("/", h.get)
		r.With(h.guard.Require("member:edit", h.loadMember)).Patch("/", h.update)
		r.With(h.guard.Require("member:delete", h.loadMember)).Delete("/", h.remove)
		r.With(h.guard.Require("member:view", h.loadSensitiveMember)).Get("/ssn", h.revealSSN)
	})
}

func (h *Handler) loadMember(r *http.Request) (map[string]any, error) {
	member, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return member.Attributes(), nil
}

// loadSensitiveMember tags the resource as compliance data so the
// compliance-data-access rule is the one that decides the reveal.
func (h *Handler) loadSensitiveMember(r *http.Request) (map[string]any, error) {
	attrs, err := h.loadMember(r)
	if err != nil {
		return nil, err
	}
	attrs["data_classification"] = "compliance"
	return attrs, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	items, pagination, err := h.service.List(r.Context(), ListFilter{
		Region:  q.Get("region"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	out := make([]Response, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i], h.service.MaskedSSN(&items[i])))
	}
	httpx.JSON(w, http.StatusOK, ListResponse{Items: out, Pagination: pagination})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req CreateMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	member, err := h.service.Create(r.Context(), sub, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(member, h.service.MaskedSSN(member)))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(member, h.service.MaskedSSN(member)))
}

func (h *Handler) revealSSN(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	ssn, err := h.service.RevealSSN(r.Context(), sub, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"ssn": ssn})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req UpdateMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	member, err := h.service.Update(r.Context(), sub, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(member, h.service.MaskedSSN(member)))
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
