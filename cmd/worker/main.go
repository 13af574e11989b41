package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/mrp-dashboard/internal/app"
	jobmetrics "github.com/odyssey-erp/mrp-dashboard/internal/jobs"
	"github.com/odyssey-erp/mrp-dashboard/internal/mostatus"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/observability"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/cache"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/db"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/migrate"
	"github.com/odyssey-erp/mrp-dashboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "mrpdash-worker")

	client := orm.NewJSONRPC(orm.Config{
		URL:      cfg.OdooURL,
		DB:       cfg.OdooDB,
		Login:    cfg.OdooLogin,
		Password: cfg.OdooPassword,
		Timeout:  cfg.OdooTimeout,
	}, orm.WithObserver(observability.NewMetrics()))

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var source mostatus.Source = mostatus.NewRemoteSource(client)
	if cfg.UsesLocalStatus() {
		if cfg.MigrateOnStart {
			if err := migrate.Up(cfg.PGDSN); err != nil {
				logger.Error("migrate", slog.Any("error", err))
				os.Exit(1)
			}
		}
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		source = mostatus.NewLocalSource(client, pool)
	}

	notifier := notify.Notifier(notify.NewLogNotifier(logger))
	if cfg.AMQPURL != "" {
		publisher, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Warn("amqp notifier disabled", slog.Any("error", err))
		} else {
			defer func() { _ = publisher.Close() }()
			notifier = notify.Multi(notifier, publisher)
		}
	}

	statusService := mostatus.NewService(client, source, mostatus.NewCache(redisClient, 10*time.Minute), nil, logger)
	regenerateJob := jobs.NewStatusRegenerateJob(statusService, notifier, logger, jobmetrics.NewMetrics(nil), cfg.StatusWindowDays)

	refreshTask, err := jobs.NewStatusRegenerateTask(jobs.StatusRegeneratePayload{WindowDays: cfg.StatusWindowDays})
	if err != nil {
		logger.Error("build status refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cache.AsynqOpt(cfg.RedisAddr),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStatusRegenerate, Handler: regenerateJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.StatusRefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("cron", cfg.StatusRefreshCron), slog.Int("window_days", cfg.StatusWindowDays))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
