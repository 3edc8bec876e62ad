package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskClaimProcess settles an approved claim.
	TaskClaimProcess = "claim:process"
	// TaskPolicySweep lapses policies past their effective window.
	TaskPolicySweep = "policy:sweep"
)

// ClaimProcessPayload identifies the claim to settle and who approved it.
type ClaimProcessPayload struct {
	ClaimID string `json:"claim_id"`
	ActorID string `json:"actor_id"`
}

// NewClaimProcessTask constructs an Asynq task for claim settlement.
func NewClaimProcessTask(payload ClaimProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskClaimProcess, data), nil
}

// NewPolicySweepTask constructs the periodic policy sweep task.
func NewPolicySweepTask() *asynq.Task {
	return asynq.NewTask(TaskPolicySweep, nil)
}
