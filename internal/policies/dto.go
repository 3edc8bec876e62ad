package policies

import (
	"time"

	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// CreatePolicyRequest is the payload for issuing a policy contract.
type CreatePolicyRequest struct {
	MemberID      string  `json:"member_id" validate:"required,uuid4"`
	ProductCode   string  `json:"product_code" validate:"required,max=40"`
	Region        string  `json:"region" validate:"required"`
	CoverageLimit float64 `json:"coverage_limit" validate:"required,gt=0"`
	Premium       float64 `json:"premium" validate:"required,gt=0"`
	EffectiveFrom string  `json:"effective_from" validate:"required,datetime=2006-01-02"`
	EffectiveTo   string  `json:"effective_to" validate:"required,datetime=2006-01-02"`
}

// UpdatePolicyRequest edits mutable contract fields.
type UpdatePolicyRequest struct {
	Status        *string  `json:"status" validate:"omitempty,oneof=active lapsed canceled"`
	CoverageLimit *float64 `json:"coverage_limit" validate:"omitempty,gt=0"`
	Premium       *float64 `json:"premium" validate:"omitempty,gt=0"`
}

// ListFilter narrows policy listings.
type ListFilter struct {
	MemberID string
	Status   Status
	Region   string
	Page     int
	PerPage  int
}

// Response is the JSON shape of a policy contract.
type Response struct {
	ID            string    `json:"id"`
	PolicyNumber  string    `json:"policy_number"`
	MemberID      string    `json:"member_id"`
	ProductCode   string    `json:"product_code"`
	Region        string    `json:"region"`
	Status        Status    `json:"status"`
	CoverageLimit float64   `json:"coverage_limit"`
	Premium       float64   `json:"premium"`
	EffectiveFrom string    `json:"effective_from"`
	EffectiveTo   string    `json:"effective_to"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListResponse wraps a paginated policy listing.
type ListResponse struct {
	Items      []Response        `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func toResponse(p *Policy) Response {
	return Response{
		ID:            p.ID,
		PolicyNumber:  p.PolicyNumber,
		MemberID:      p.MemberID,
		ProductCode:   p.ProductCode,
		Region:        p.Region,
		Status:        p.Status,
		CoverageLimit: p.CoverageLimit,
		Premium:       p.Premium,
		EffectiveFrom: p.EffectiveFrom.Format("2006-01-02"),
		EffectiveTo:   p.EffectiveTo.Format("2006-01-02"),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
