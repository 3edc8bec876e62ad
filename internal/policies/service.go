package policies

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates policy contract operations.
type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds a Service.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create issues a new active policy contract.
func (s *Service) Create(ctx context.Context, actor *shared.Subject, req CreatePolicyRequest) (*Policy, error) {
	from, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return nil, fmt.Errorf("%w: effective_from: %s", httpx.ErrValidation, err)
	}
	to, err := time.Parse("2006-01-02", req.EffectiveTo)
	if err != nil {
		return nil, fmt.Errorf("%w: effective_to: %s", httpx.ErrValidation, err)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: effective_to must be after effective_from", httpx.ErrValidation)
	}

	now := time.Now().UTC()
	policy := &Policy{
		ID:            uuid.NewString(),
		PolicyNumber:  fmt.Sprintf("POL-%d", now.UnixNano()),
		MemberID:      req.MemberID,
		ProductCode:   req.ProductCode,
		Region:        req.Region,
		Status:        StatusActive,
		CoverageLimit: req.CoverageLimit,
		Premium:       req.Premium,
		EffectiveFrom: from,
		EffectiveTo:   to,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, policy); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "policy:create", policy.ID, map[string]any{
		"policy_number": policy.PolicyNumber,
		"member_id":     policy.MemberID,
	})
	s.logger.Info("policy issued", "policy_id", policy.ID, "member_id", policy.MemberID)
	return policy, nil
}

// Get fetches a policy contract.
func (s *Service) Get(ctx context.Context, id string) (*Policy, error) {
	return s.repo.Get(ctx, id)
}

// List returns contracts matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Policy, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update applies partial edits. Canceled contracts are immutable.
func (s *Service) Update(ctx context.Context, actor *shared.Subject, id string, req UpdatePolicyRequest) (*Policy, error) {
	policy, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy.Status == StatusCanceled {
		return nil, fmt.Errorf("%w: canceled policy cannot be edited", httpx.ErrValidation)
	}
	if req.Status != nil {
		policy.Status = Status(*req.Status)
	}
	if req.CoverageLimit != nil {
		policy.CoverageLimit = *req.CoverageLimit
	}
	if req.Premium != nil {
		policy.Premium = *req.Premium
	}
	policy.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, policy); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor.ID, "policy:edit", id, map[string]any{"status": string(policy.Status)})
	return policy, nil
}

// Sweep lapses active contracts whose effective window has passed.
// Returns lapsed counts per region.
func (s *Service) Sweep(ctx context.Context, asOf time.Time) (map[string]int, error) {
	counts, err := s.repo.LapseExpired(ctx, asOf)
	if err != nil {
		return nil, err
	}
	for region, n := range counts {
		s.logger.Info("policies lapsed", "region", region, "count", n)
	}
	return counts, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, policyID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "insurance_policy",
		EntityID: policyID,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
