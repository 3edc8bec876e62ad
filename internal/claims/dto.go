package claims

import (
	"time"

	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// CreateClaimRequest is the payload for submitting a new claim.
type CreateClaimRequest struct {
	MemberID           string  `json:"member_id" validate:"required,uuid4"`
	PolicyID           string  `json:"policy_id" validate:"required,uuid4"`
	Region             string  `json:"region" validate:"required"`
	DataClassification string  `json:"data_classification" validate:"omitempty,oneof=public internal confidential restricted"`
	Amount             float64 `json:"amount" validate:"required,gt=0"`
	Description        string  `json:"description" validate:"required,max=2000"`
}

// UpdateClaimRequest is the payload for editing a claim.
type UpdateClaimRequest struct {
	Amount      *float64 `json:"amount" validate:"omitempty,gt=0"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Notes       *string  `json:"notes" validate:"omitempty,max=4000"`
}

// StatusRequest moves a claim to a new status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in_review approved denied processed"`
	Note   string `json:"note" validate:"omitempty,max=2000"`
}

// ListFilter narrows claim listings.
type ListFilter struct {
	Status  Status
	Region  string
	OwnerID string
	Page    int
	PerPage int
}

// Response is the JSON shape of a claim.
type Response struct {
	ID                 string    `json:"id"`
	ClaimNumber        string    `json:"claim_number"`
	MemberID           string    `json:"member_id"`
	PolicyID           string    `json:"policy_id"`
	OwnerID            string    `json:"owner_id"`
	Region             string    `json:"region"`
	DataClassification string    `json:"data_classification"`
	Status             Status    `json:"status"`
	Amount             float64   `json:"amount"`
	Description        string    `json:"description"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// StatusSummary aggregates claims in a single status.
type StatusSummary struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// SummaryResponse reports claim volume and exposure per status.
type SummaryResponse struct {
	Total    int                      `json:"total"`
	Statuses map[string]StatusSummary `json:"statuses"`
}

// ListResponse wraps a paginated claim listing.
type ListResponse struct {
	Items      []Response        `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func toResponse(c *Claim) Response {
	return Response{
		ID:                 c.ID,
		ClaimNumber:        c.ClaimNumber,
		MemberID:           c.MemberID,
		PolicyID:           c.PolicyID,
		OwnerID:            c.OwnerID,
		Region:             c.Region,
		DataClassification: c.DataClassification,
		Status:             c.Status,
		Amount:             c.Amount,
		Description:        c.Description,
		Notes:              c.Notes,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
