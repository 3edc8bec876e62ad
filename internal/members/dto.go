package members

import (
	"time"

	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// CreateMemberRequest is the payload for enrolling a member.
type CreateMemberRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	SSN         string `json:"ssn" validate:"required,len=11"`
	Region      string `json:"region" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
}

// UpdateMemberRequest edits mutable member fields.
type UpdateMemberRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Region    *string `json:"region"`
}

// Response is the JSON shape of a member with PII masked.
type Response struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	SSNMasked   string    `json:"ssn_masked"`
	Region      string    `json:"region"`
	DateOfBirth string    `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListResponse wraps a paginated member listing.
type ListResponse struct {
	Items      []Response        `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListFilter narrows member listings.
type ListFilter struct {
	Region  string
	Page    int
	PerPage int
}

func toResponse(m *Member, masked string) Response {
	if masked == "" {
		masked = "***"
	}
	return Response{
		ID:          m.ID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Email:       m.Email,
		SSNMasked:   masked,
		Region:      m.Region,
		DateOfBirth: m.DateOfBirth.Format("2006-01-02"),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
