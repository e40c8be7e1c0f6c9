// File: services/tasks/reminder.go
package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeReminderDispatch = "reminder:dispatch"
	TypeReminderScan     = "reminder:scan"
	TypeReminderSweep    = "reminder:sweep"
)

// DispatchPayload identifies the job a dispatch task should deliver.
type DispatchPayload struct {
	JobID string `json:"jobId"`
}

// NewDispatchTask builds a dispatch task that fires at the job's scheduled
// time. Tasks are at-least-once; the job claim makes duplicates harmless.
// Asynq's own retry is disabled — retries are driven by the job state
// machine so attempts survive a queue flush.
func NewDispatchTask(jobID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(DispatchPayload{JobID: jobID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeReminderDispatch, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt), asynq.MaxRetry(0)}

	return task, opts, nil
}
