package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	jobmetrics "github.com/odyssey-erp/mrp-dashboard/internal/jobs"
	"github.com/odyssey-erp/mrp-dashboard/internal/mostatus"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
)

type stubRegenerator struct {
	err    error
	ranges []mostatus.DateRange
}

func (s *stubRegenerator) Regenerate(ctx context.Context, r mostatus.DateRange) error {
	s.ranges = append(s.ranges, r)
	return s.err
}

func newTestJob(regen Regenerator, n notify.Notifier) *StatusRegenerateJob {
	job := NewStatusRegenerateJob(regen, n, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()), 7)
	job.clock = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }
	return job
}

func TestStatusRegenerateUsesExplicitRange(t *testing.T) {
	regen := &stubRegenerator{}
	task, err := NewStatusRegenerateTask(StatusRegeneratePayload{Start: "2025-02-01", End: "2025-02-28"})
	require.NoError(t, err)

	require.NoError(t, newTestJob(regen, nil).Handle(context.Background(), task))
	require.Len(t, regen.ranges, 1)
	assert.Equal(t, "2025-02-01..2025-02-28", regen.ranges[0].String())
}

func TestStatusRegenerateWindow(t *testing.T) {
	regen := &stubRegenerator{}
	job := newTestJob(regen, nil)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskStatusRegenerate, nil)))
	task, _ := NewStatusRegenerateTask(StatusRegeneratePayload{WindowDays: 3})
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, regen.ranges, 2)
	assert.Equal(t, "2025-03-04..2025-03-10", regen.ranges[0].String())
	assert.Equal(t, "2025-03-08..2025-03-10", regen.ranges[1].String())
}

func TestStatusRegenerateFailureNotifiesSticky(t *testing.T) {
	regen := &stubRegenerator{err: errors.New("backend down")}
	out := action.NewOutbox(nil)

	err := newTestJob(regen, out).Handle(context.Background(), asynq.NewTask(TaskStatusRegenerate, nil))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	notices := out.Snapshot().Notices
	require.Len(t, notices, 1)
	assert.True(t, notices[0].Sticky)
	assert.Equal(t, notify.TypeDanger, notices[0].Type)
	assert.Contains(t, notices[0].Message, "backend down")
}

func TestStatusRegenerateBadPayloadSkipsRetry(t *testing.T) {
	regen := &stubRegenerator{}
	job := newTestJob(regen, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskStatusRegenerate, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, _ := NewStatusRegenerateTask(StatusRegeneratePayload{Start: "2025-03-10", End: "2025-03-01"})
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
	assert.Empty(t, regen.ranges)
}

func TestStatusRegenerateRejectsOversizedRanges(t *testing.T) {
	regen := &stubRegenerator{}
	job := newTestJob(regen, nil)

	task, _ := NewStatusRegenerateTask(StatusRegeneratePayload{Start: "0001-01-01", End: "9999-12-31"})
	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, mostatus.ErrInvalidRange)

	task, _ = NewStatusRegenerateTask(StatusRegeneratePayload{WindowDays: mostatus.MaxRangeDays + 1})
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
	assert.Empty(t, regen.ranges)
}

func TestNewTaskByName(t *testing.T) {
	task, err := NewTask("status-regenerate", StatusRegeneratePayload{WindowDays: 2})
	require.NoError(t, err)
	assert.Equal(t, TaskStatusRegenerate, task.Type())

	var payload StatusRegeneratePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 2, payload.WindowDays)

	_, err = NewTask("mail:send", StatusRegeneratePayload{})
	assert.Error(t, err)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0,"scheduled":0}`, rec.Body.String())
}
