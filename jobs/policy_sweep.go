package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/atlas-claims/atlas-claims/internal/jobs"
	"github.com/atlas-claims/atlas-claims/internal/policies"
)

// PolicySweeper lapses contracts whose effective window has passed.
type PolicySweeper struct {
	service *policies.Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewPolicySweeper builds the sweep handler.
func NewPolicySweeper(service *policies.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *PolicySweeper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PolicySweeper{service: service, logger: logger, metrics: metrics}
}

// Handle processes a TaskPolicySweep task.
func (p *PolicySweeper) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := p.metrics.Track("policy_sweep")

	counts, err := p.service.Sweep(ctx, time.Now().UTC())
	if err != nil {
		p.logger.Error("policy sweep failed", "error", err)
		return tracker.End(err)
	}

	total := 0
	for region, n := range counts {
		p.metrics.AddLapsedPolicies(region, n)
		total += n
	}
	p.logger.Info("policy sweep finished", "lapsed", total)
	return tracker.End(nil)
}
