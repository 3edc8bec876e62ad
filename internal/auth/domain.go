package auth

import "time"

// User represents an authenticated user account. Region and
// ComplianceAccess feed the ABAC attribute bucket at token issue time.
type User struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Roles            []string
	Region           string
	ComplianceAccess bool
	IsActive         bool
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
