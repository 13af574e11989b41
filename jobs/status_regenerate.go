package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/mrp-dashboard/internal/jobs"
	"github.com/odyssey-erp/mrp-dashboard/internal/mostatus"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
)

// JobStatusRegenerate labels the regeneration job in metrics.
const JobStatusRegenerate = "mrp_status_regenerate"

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Regenerator rebuilds the status snapshot for a range.
type Regenerator interface {
	Regenerate(ctx context.Context, r mostatus.DateRange) error
}

// StatusRegenerateJob refreshes the daily MO status counts in the background.
type StatusRegenerateJob struct {
	Regenerator Regenerator
	Notifier    notify.Notifier
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	WindowDays  int
	clock       func() time.Time
}

// NewStatusRegenerateJob wires dependencies for the regeneration handler.
func NewStatusRegenerateJob(regen Regenerator, notifier notify.Notifier, logger *slog.Logger, metrics *jobmetrics.Metrics, windowDays int) *StatusRegenerateJob {
	return &StatusRegenerateJob{
		Regenerator: regen,
		Notifier:    notifier,
		Logger:      logger,
		Metrics:     metrics,
		WindowDays:  windowDays,
		clock: func() time.Time {
			return time.Now()
		},
	}
}

// Handle processes TaskStatusRegenerate tasks. Failures are announced and returned so
// asynq retries them.
func (j *StatusRegenerateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Regenerator == nil {
		return errors.New("status regenerate: handler not configured")
	}
	var payload StatusRegeneratePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("status regenerate: %v: %w", err, asynq.SkipRetry)
		}
	}
	rng, err := j.resolveRange(payload)
	if err != nil {
		j.logger().Warn("invalid payload", slog.Any("error", err))
		return fmt.Errorf("status regenerate: %w: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(JobStatusRegenerate)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("range", rng.String()))
	logger.Info("starting status regeneration")
	start := time.Now()

	if err := j.Regenerator.Regenerate(ctx, rng); err != nil {
		resultErr = err
		logger.Error("regenerate status", slog.Any("error", err))
		notice := notify.New(notify.TypeDanger, "Status refresh failed",
			fmt.Sprintf("Error loading dashboard data: %v", err)).AsSticky()
		if nerr := j.notifier().Notify(ctx, notice); nerr != nil {
			logger.Warn("notify failure", slog.Any("error", nerr))
		}
		return resultErr
	}

	days := len(rng.Days())
	j.metrics().SetRows(JobStatusRegenerate, days)
	logger.Info("completed status regeneration", slog.Int("days", days), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *StatusRegenerateJob) resolveRange(p StatusRegeneratePayload) (mostatus.DateRange, error) {
	if p.Start != "" || p.End != "" {
		return mostatus.ParseDateRange(p.Start, p.End)
	}
	days := p.WindowDays
	if days <= 0 {
		days = j.WindowDays
	}
	if days <= 0 {
		return mostatus.DefaultRange(j.now()), nil
	}
	if days > mostatus.MaxRangeDays {
		return mostatus.DateRange{}, fmt.Errorf("%w: window of %d days exceeds the %d day limit", mostatus.ErrInvalidRange, days, mostatus.MaxRangeDays)
	}
	return mostatus.LastDays(j.now(), days), nil
}

func (j *StatusRegenerateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStatusRegenerate))
	}
	return slog.Default().With(slog.String("job", TaskStatusRegenerate))
}

func (j *StatusRegenerateJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *StatusRegenerateJob) notifier() notify.Notifier {
	if j.Notifier != nil {
		return j.Notifier
	}
	return notify.Discard
}

func (j *StatusRegenerateJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
