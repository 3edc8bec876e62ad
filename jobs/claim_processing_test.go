package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-claims/atlas-claims/internal/claims"
	jobmetrics "github.com/atlas-claims/atlas-claims/internal/jobs"
	"github.com/atlas-claims/atlas-claims/internal/platform/httpx"
)

type stubClaimRepo struct {
	claim *claims.Claim
}

func (s *stubClaimRepo) Create(_ context.Context, _ *claims.Claim) error { return nil }

func (s *stubClaimRepo) Get(_ context.Context, id string) (*claims.Claim, error) {
	if s.claim != nil && s.claim.ID == id {
		cp := *s.claim
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubClaimRepo) List(_ context.Context, _ claims.ListFilter) ([]claims.Claim, int, error) {
	return nil, 0, nil
}

func (s *stubClaimRepo) Update(_ context.Context, claim *claims.Claim) error {
	cp := *claim
	s.claim = &cp
	return nil
}

func (s *stubClaimRepo) Delete(_ context.Context, _ string) error { return nil }

func (s *stubClaimRepo) SummarizeStatus(_ context.Context, _ claims.Status) (claims.StatusSummary, error) {
	return claims.StatusSummary{}, nil
}

func gatherCounter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestClaimProcessorSettlesAndReportsMetrics(t *testing.T) {
	repo := &stubClaimRepo{claim: &claims.Claim{ID: "c1", Status: claims.StatusApproved}}
	service := claims.NewService(repo, claims.NewCache(nil, time.Minute), nil, nil, nil)

	reg := prometheus.NewRegistry()
	processor := NewClaimProcessor(service, nil, jobmetrics.NewMetrics(reg))

	task, err := NewClaimProcessTask(ClaimProcessPayload{ClaimID: "c1", ActorID: "u1"})
	require.NoError(t, err)
	require.NoError(t, processor.Handle(context.Background(), task))

	assert.Equal(t, claims.StatusProcessed, repo.claim.Status)
	assert.Equal(t, 1.0, gatherCounter(t, reg, "atlas_jobs_total"))
	assert.Zero(t, gatherCounter(t, reg, "atlas_jobs_failures_total"))
}

func TestClaimProcessorSkipsRetryOnBadPayload(t *testing.T) {
	repo := &stubClaimRepo{}
	service := claims.NewService(repo, claims.NewCache(nil, time.Minute), nil, nil, nil)

	reg := prometheus.NewRegistry()
	processor := NewClaimProcessor(service, nil, jobmetrics.NewMetrics(reg))

	err := processor.Handle(context.Background(), asynq.NewTask(TaskClaimProcess, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, 1.0, gatherCounter(t, reg, "atlas_jobs_failures_total"))
}
