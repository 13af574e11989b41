package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatusRegenerate rebuilds the daily MO status snapshot.
	TaskStatusRegenerate = "mrp:status:regenerate"
)

// StatusRegeneratePayload selects the days to rebuild. An explicit start and end win
// over WindowDays; an empty payload uses the worker's configured window.
type StatusRegeneratePayload struct {
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	WindowDays int    `json:"window_days,omitempty"`
}

// NewStatusRegenerateTask constructs an Asynq task.
func NewStatusRegenerateTask(payload StatusRegeneratePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatusRegenerate, data, asynq.MaxRetry(3)), nil
}

// NewTask builds a task by its CLI name.
func NewTask(name string, payload StatusRegeneratePayload) (*asynq.Task, error) {
	switch name {
	case TaskStatusRegenerate, "status-regenerate":
		return NewStatusRegenerateTask(payload)
	default:
		return nil, fmt.Errorf("jobs: unknown task %q", name)
	}
}
