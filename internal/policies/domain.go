package policies

import "time"

// Status tracks a policy contract's lifecycle.
type Status string

const (
	StatusActive   Status = "active"
	StatusLapsed   Status = "lapsed"
	StatusCanceled Status = "canceled"
)

// Policy is an insurance policy contract held by a member.
type Policy struct {
	ID            string
	PolicyNumber  string
	MemberID      string
	ProductCode   string
	Region        string
	Status        Status
	CoverageLimit float64
	Premium       float64
	EffectiveFrom time.Time
	EffectiveTo   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Attributes flattens the policy into the resource bucket used during
// policy evaluation.
func (p *Policy) Attributes() map[string]any {
	return map[string]any{
		"id":             p.ID,
		"member_id":      p.MemberID,
		"region":         p.Region,
		"status":         string(p.Status),
		"coverage_limit": p.CoverageLimit,
	}
}

// CoversAmount reports whether a claim amount fits inside the coverage
// limit of an active policy.
func (p *Policy) CoversAmount(amount float64) bool {
	return p.Status == StatusActive && amount > 0 && amount <= p.CoverageLimit
}
