package claims

import "time"

// Status tracks a claim through its lifecycle.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusInReview  Status = "in_review"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusProcessed Status = "processed"
)

// validTransitions lists the allowed status moves.
var validTransitions = map[Status][]Status{
	StatusSubmitted: {StatusInReview, StatusDenied},
	StatusInReview:  {StatusApproved, StatusDenied},
	StatusApproved:  {StatusProcessed},
}

// AllStatuses enumerates every lifecycle status.
func AllStatuses() []Status {
	return []Status{StatusSubmitted, StatusInReview, StatusApproved, StatusDenied, StatusProcessed}
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Claim is an insurance claim record. DataClassification drives policy
// conditions such as the compliance-data rule.
type Claim struct {
	ID                 string
	ClaimNumber        string
	MemberID           string
	PolicyID           string
	OwnerID            string
	Region             string
	DataClassification string
	Status             Status
	Amount             float64
	Description        string
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Attributes flattens the claim into the resource bucket used during
// policy evaluation.
func (c *Claim) Attributes() map[string]any {
	return map[string]any{
		"id":                  c.ID,
		"claim_number":        c.ClaimNumber,
		"member_id":           c.MemberID,
		"policy_id":           c.PolicyID,
		"owner_id":            c.OwnerID,
		"region":              c.Region,
		"data_classification": c.DataClassification,
		"status":              string(c.Status),
		"amount":              c.Amount,
	}
}
