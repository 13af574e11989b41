package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/mrp-dashboard/jobs"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubInspector struct {
	info *asynq.QueueInfo
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) { return s.info, nil }

func (s stubInspector) ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return nil, nil
}

func (s stubInspector) Close() error { return nil }

func TestTriggerCommandEnqueuesRegenerate(t *testing.T) {
	enq := &stubEnqueuer{}
	c := &JobsCLI{client: enq}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := c.TriggerCommand(context.Background(), TriggerOptions{
		Job:    "status-regenerate",
		Start:  "2025-01-01",
		End:    "2025-01-31",
		Stdout: stdout,
		Stderr: stderr,
	})
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, jobs.TaskStatusRegenerate, enq.tasks[0].Type())

	var payload jobs.StatusRegeneratePayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, "2025-01-01", payload.Start)
	assert.Equal(t, "2025-01-31", payload.End)

	var out triggerOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "task-1", out.ID)
}

func TestTriggerCommandRejectsBadInput(t *testing.T) {
	cases := []TriggerOptions{
		{},
		{Job: "status-regenerate", Start: "2025-01-01"},
		{Job: "status-regenerate", WindowDays: -1},
		{Job: "unknown"},
	}
	for _, opts := range cases {
		enq := &stubEnqueuer{}
		stderr := new(bytes.Buffer)
		opts.Stdout, opts.Stderr = new(bytes.Buffer), stderr
		code := (&JobsCLI{client: enq}).TriggerCommand(context.Background(), opts)
		assert.Equal(t, 1, code)
		assert.NotEmpty(t, stderr.String())
		assert.Empty(t, enq.tasks)
	}
}

func TestTriggerCommandEnqueueFailure(t *testing.T) {
	stderr := new(bytes.Buffer)
	c := &JobsCLI{client: &stubEnqueuer{err: errors.New("redis down")}}
	code := c.TriggerCommand(context.Background(), TriggerOptions{Job: jobs.TaskStatusRegenerate, Stderr: stderr, Stdout: new(bytes.Buffer)})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "redis down")
}

func TestStatsCommand(t *testing.T) {
	c := &JobsCLI{inspector: stubInspector{info: &asynq.QueueInfo{Pending: 2, Retry: 1}}}
	stdout := new(bytes.Buffer)
	require.Equal(t, 0, c.StatsCommand(context.Background(), stdout, new(bytes.Buffer)))

	var stats QueueStats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
	assert.Equal(t, QueueStats{Queue: jobs.QueueDefault, Pending: 2, Retry: 1}, stats)
}

func TestNilClientErrors(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskStatusRegenerate, jobs.StatusRegeneratePayload{})
	require.Error(t, err)
	_, err = (&JobsCLI{}).InspectQueue(context.Background())
	require.Error(t, err)
}
