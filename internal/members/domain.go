package members

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Member is an insured person. The SSN is never stored raw: SSNToken is a
// deterministic lookup token and SSNSealed the recoverable ciphertext.
type Member struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	SSNToken    string
	SSNSealed   string
	Region      string
	DateOfBirth time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Attributes flattens the member into the resource bucket used during
// policy evaluation. PII stays out of the bucket.
func (m *Member) Attributes() map[string]any {
	return map[string]any{
		"id":     m.ID,
		"region": m.Region,
	}
}

var nameCaser = cases.Title(language.English, cases.NoLower)

// NormalizeName title-cases a person name while leaving interior
// capitals (McDonald, O'Brien) intact.
func NormalizeName(name string) string {
	return nameCaser.String(name)
}
