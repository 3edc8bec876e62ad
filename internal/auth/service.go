package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// Service handles login and token issuance.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	secret   string
	tokenTTL time.Duration
}

// NewService creates a Service.
func NewService(repo Repository, logger *slog.Logger, secret string, tokenTTL time.Duration) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, secret: secret, tokenTTL: tokenTTL}
}

// TokenResult is what a successful login yields.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login verifies credentials and issues an access token. Invalid email,
// wrong password, and disabled accounts all collapse into the same
// unauthorized error so callers cannot probe which part failed.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("login failed", "email", email, "reason", "lookup")
		return nil, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if !user.IsActive || !CheckPassword(password, user.PasswordHash) {
		s.logger.Warn("login failed", "email", email, "reason", "credentials")
		return nil, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}

	token, err := GenerateAccessToken(user, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("touch last login failed", "user_id", user.ID, "error", err)
	}

	s.logger.Info("login succeeded", "user_id", user.ID)
	return &TokenResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

// Profile returns the current user's account record.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", httpx.ErrNotFound, userID)
	}
	return user, nil
}

// SubjectFromClaims converts parsed token claims into the request subject.
func SubjectFromClaims(claims *Claims) *shared.Subject {
	return &shared.Subject{
		ID:    claims.Subject,
		Email: claims.Email,
		Roles: claims.Roles,
		Attributes: map[string]any{
			"region":            claims.Region,
			"compliance_access": claims.ComplianceAccess,
		},
	}
}
