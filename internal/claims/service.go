package claims

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
	"github.com/atlas-claims/atlas-claims/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Enqueuer submits claims for background processing.
type Enqueuer interface {
	EnqueueClaimProcess(ctx context.Context, claimID, actorID string) error
}

// Service coordinates claim operations.
type Service struct {
	repo     Repository
	cache    *Cache
	audit    AuditPort
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewService builds a Service. Audit and enqueuer may be nil in tests.
func NewService(repo Repository, cache *Cache, audit AuditPort, enqueuer Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, cache: cache, audit: audit, enqueuer: enqueuer, logger: logger}
}

// Create registers a new claim owned by the acting subject.
func (s *Service) Create(ctx context.Context, actor *shared.Subject, req CreateClaimRequest) (*Claim, error) {
	now := time.Now().UTC()
	classification := req.DataClassification
	if classification == "" {
		classification = "internal"
	}
	claim := &Claim{
		ID:                 uuid.NewString(),
		ClaimNumber:        fmt.Sprintf("CLM-%d", now.UnixNano()),
		MemberID:           req.MemberID,
		PolicyID:           req.PolicyID,
		OwnerID:            actor.ID,
		Region:             req.Region,
		DataClassification: classification,
		Status:             StatusSubmitted,
		Amount:             req.Amount,
		Description:        req.Description,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, claim); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "claim:create", claim.ID, map[string]any{
		"claim_number": claim.ClaimNumber,
		"amount":       claim.Amount,
		"region":       claim.Region,
	})
	s.logger.Info("claim created", "claim_id", claim.ID, "owner_id", actor.ID)
	return claim, nil
}

// Get fetches a claim, going through the read cache.
func (s *Service) Get(ctx context.Context, id string) (*Claim, error) {
	return s.cache.Fetch(ctx, id, func(ctx context.Context) (*Claim, error) {
		return s.repo.Get(ctx, id)
	})
}

// List returns claims matching the filter along with pagination metadata.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Claim, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Summary aggregates claim counts and amounts per status, fanning the
// per-status queries out concurrently.
func (s *Service) Summary(ctx context.Context) (*SummaryResponse, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := &SummaryResponse{Statuses: make(map[string]StatusSummary, len(AllStatuses()))}

	for _, status := range AllStatuses() {
		status := status
		g.Go(func() error {
			summary, err := s.repo.SummarizeStatus(ctx, status)
			if err != nil {
				return err
			}
			mu.Lock()
			out.Statuses[string(status)] = summary
			out.Total += summary.Count
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies partial edits to a claim.
func (s *Service) Update(ctx context.Context, actor *shared.Subject, id string, req UpdateClaimRequest) (*Claim, error) {
	claim, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Amount != nil {
		claim.Amount = *req.Amount
	}
	if req.Description != nil {
		claim.Description = *req.Description
	}
	if req.Notes != nil {
		claim.Notes = *req.Notes
	}
	claim.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, claim); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	s.recordAudit(ctx, actor.ID, "claim:edit", id, map[string]any{"amount": claim.Amount})
	return claim, nil
}

// Transition moves a claim to a new lifecycle status. Approvals are
// handed off to the background worker for settlement processing.
func (s *Service) Transition(ctx context.Context, actor *shared.Subject, id string, req StatusRequest) (*Claim, error) {
	claim, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	target := Status(req.Status)
	if !CanTransition(claim.Status, target) {
		return nil, fmt.Errorf("%w: cannot move claim from %s to %s", httpx.ErrValidation, claim.Status, target)
	}

	claim.Status = target
	if req.Note != "" {
		claim.Notes = req.Note
	}
	claim.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, claim); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)

	if target == StatusApproved && s.enqueuer != nil {
		if err := s.enqueuer.EnqueueClaimProcess(ctx, claim.ID, actor.ID); err != nil {
			s.logger.Error("enqueue claim processing failed", "claim_id", claim.ID, "error", err)
		}
	}

	s.recordAudit(ctx, actor.ID, "claim:"+req.Status, id, map[string]any{"note": req.Note})
	s.logger.Info("claim transitioned", "claim_id", id, "status", target)
	return claim, nil
}

// Delete removes a claim.
func (s *Service) Delete(ctx context.Context, actor *shared.Subject, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	s.recordAudit(ctx, actor.ID, "claim:delete", id, nil)
	return nil
}

// MarkProcessed is invoked by the worker once settlement completes.
func (s *Service) MarkProcessed(ctx context.Context, id string) error {
	claim, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(claim.Status, StatusProcessed) {
		return fmt.Errorf("claim %s is %s, not approved", id, claim.Status)
	}
	claim.Status = StatusProcessed
	claim.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, claim); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, claimID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "claim",
		EntityID: claimID,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
