package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atlas-claims/atlas-claims/internal/claims"
	jobmetrics "github.com/atlas-claims/atlas-claims/internal/jobs"
)

// ClaimProcessor settles approved claims off the request path.
type ClaimProcessor struct {
	service *claims.Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewClaimProcessor builds the settlement handler.
func NewClaimProcessor(service *claims.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ClaimProcessor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ClaimProcessor{service: service, logger: logger, metrics: metrics}
}

// Handle processes a TaskClaimProcess task.
func (p *ClaimProcessor) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track("claim_process")

	var payload ClaimProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		p.logger.Error("claim process payload invalid", "error", err)
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	if payload.ClaimID == "" {
		_ = tracker.End(asynq.SkipRetry)
		return asynq.SkipRetry
	}

	err := p.service.MarkProcessed(ctx, payload.ClaimID)
	if err != nil {
		p.logger.Error("claim settlement failed", "claim_id", payload.ClaimID, "error", err)
		return tracker.End(err)
	}

	p.logger.Info("claim settled", "claim_id", payload.ClaimID, "approved_by", payload.ActorID)
	return tracker.End(nil)
}
