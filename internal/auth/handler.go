package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler creates an auth Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type profileResponse struct {
	ID               string   `json:"id"`
	Username         string   `json:"username"`
	Email            string   `json:"email"`
	Roles            []string `json:"roles"`
	Region           string   `json:"region,omitempty"`
	ComplianceAccess bool     `json:"compliance_access"`
}

// MountRoutes registers login (public) and me (authenticated) routes.
// The me route must be mounted behind Middleware by the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
}

// MountProtectedRoutes registers routes that require an authenticated subject.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sub := shared.SubjectFromContext(r.Context())
	if sub == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	user, err := h.service.Profile(r.Context(), sub.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profileResponse{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		Roles:            user.Roles,
		Region:           user.Region,
		ComplianceAccess: user.ComplianceAccess,
	})
}
