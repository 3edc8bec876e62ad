package members

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-claims/atlas-claims/internal/pii"
	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates member operations.
type Service struct {
	repo      Repository
	tokenizer *pii.Tokenizer
	audit     AuditPort
	logger    *slog.Logger
}

// NewService builds a Service.
func NewService(repo Repository, tokenizer *pii.Tokenizer, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, tokenizer: tokenizer, audit: audit, logger: logger}
}

// Create enrolls a member. A duplicate SSN token means the person is
// already enrolled.
func (s *Service) Create(ctx context.Context, actor *shared.Subject, req CreateMemberRequest) (*Member, error) {
	token := s.tokenizer.Token(req.SSN)
	if existing, err := s.repo.FindBySSNToken(ctx, token); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: member already enrolled", httpx.ErrDuplicate)
	}

	sealed, err := s.tokenizer.Seal(req.SSN)
	if err != nil {
		return nil, err
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("%w: date_of_birth: %s", httpx.ErrValidation, err)
	}

	now := time.Now().UTC()
	member := &Member{
		ID:          uuid.NewString(),
		FirstName:   NormalizeName(req.FirstName),
		LastName:    NormalizeName(req.LastName),
		Email:       req.Email,
		SSNToken:    token,
		SSNSealed:   sealed,
		Region:      req.Region,
		DateOfBirth: dob,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "member:create", member.ID, map[string]any{"region": member.Region})
	s.logger.Info("member enrolled", "member_id", member.ID)
	return member, nil
}

// Get fetches a member by id.
func (s *Service) Get(ctx context.Context, id string) (*Member, error) {
	return s.repo.Get(ctx, id)
}

// RevealSSN decrypts the stored SSN. Callers gate this behind the
// compliance policy; the read itself is always audited.
func (s *Service) RevealSSN(ctx context.Context, actor *shared.Subject, id string) (string, error) {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	ssn, err := s.tokenizer.Open(member.SSNSealed)
	if err != nil {
		return "", err
	}
	s.recordAudit(ctx, actor.ID, "member:reveal_ssn", id, nil)
	return ssn, nil
}

// List returns members matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Member, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update applies partial edits to a member.
func (s *Service) Update(ctx context.Context, actor *shared.Subject, id string, req UpdateMemberRequest) (*Member, error) {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		member.FirstName = NormalizeName(*req.FirstName)
	}
	if req.LastName != nil {
		member.LastName = NormalizeName(*req.LastName)
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Region != nil {
		member.Region = *req.Region
	}
	member.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor.ID, "member:edit", id, nil)
	return member, nil
}

// Delete removes a member.
func (s *Service) Delete(ctx context.Context, actor *shared.Subject, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, "member:delete", id, nil)
	return nil
}

// MaskedSSN returns the display form of the member's SSN without
// decrypting more than needed.
func (s *Service) MaskedSSN(member *Member) string {
	ssn, err := s.tokenizer.Open(member.SSNSealed)
	if err != nil {
		return "***"
	}
	return pii.MaskSSN(ssn)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, memberID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "member",
		EntityID: memberID,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
