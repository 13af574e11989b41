package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/mrp-dashboard/cmd/mrpdash/cli"
	"github.com/odyssey-erp/mrp-dashboard/internal/app"
	"github.com/odyssey-erp/mrp-dashboard/internal/hierarchy"
	hierarchyhttp "github.com/odyssey-erp/mrp-dashboard/internal/hierarchy/http"
	"github.com/odyssey-erp/mrp-dashboard/internal/mostatus"
	mostatushttp "github.com/odyssey-erp/mrp-dashboard/internal/mostatus/http"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/observability"
	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/cache"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/db"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/migrate"
	"github.com/odyssey-erp/mrp-dashboard/jobs"
)

const usage = `usage: mrpdash [command]

commands:
  serve                     run the HTTP server (default)
  migrate                   apply pending status snapshot migrations
  trigger <job> [flags]     enqueue a background job
  stats                     print default queue statistics
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg, "mrpdash")

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		if err := serve(ctx, stop, cfg, logger); err != nil {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	case "migrate":
		if err := migrate.Up(cfg.PGDSN); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	case "trigger", "stats":
		os.Exit(runJobsCommand(ctx, cfg, cmd, args))
	default:
		_, _ = fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runJobsCommand(ctx context.Context, cfg *app.Config, cmd string, args []string) int {
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = jobsCLI.Close() }()

	if cmd == "stats" {
		return jobsCLI.StatsCommand(ctx, os.Stdout, os.Stderr)
	}
	if len(args) == 0 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		return 2
	}
	opts := cli.TriggerOptions{Job: args[0], Stdout: os.Stdout, Stderr: os.Stderr}
	fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&opts.Start, "start", "", "first day to rebuild (YYYY-MM-DD)")
	fs.StringVar(&opts.End, "end", "", "last day to rebuild (YYYY-MM-DD)")
	fs.IntVar(&opts.WindowDays, "window", 0, "rebuild the trailing number of days")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	return jobsCLI.TriggerCommand(ctx, opts)
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()
	client := orm.NewJSONRPC(orm.Config{
		URL:      cfg.OdooURL,
		DB:       cfg.OdooDB,
		Login:    cfg.OdooLogin,
		Password: cfg.OdooPassword,
		Timeout:  cfg.OdooTimeout,
	}, orm.WithObserver(metrics))

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var notifiers []notify.Notifier
	notifiers = append(notifiers, notify.NewLogNotifier(logger))
	if cfg.AMQPURL != "" {
		publisher, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Warn("amqp notifier disabled", slog.Any("error", err))
		} else {
			defer func() { _ = publisher.Close() }()
			notifiers = append(notifiers, publisher)
		}
	}
	notifier := notify.Multi(notifiers...)

	var source mostatus.Source = mostatus.NewRemoteSource(client)
	if cfg.UsesLocalStatus() {
		if cfg.MigrateOnStart {
			if err := migrate.Up(cfg.PGDSN); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		var pool *pgxpool.Pool
		pool, err = db.New(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		source = mostatus.NewLocalSource(client, pool)
	}

	statusService := mostatus.NewService(client, source, mostatus.NewCache(redisClient, 10*time.Minute), mostatus.SVGRenderer{}, logger)
	statusHandler := mostatushttp.NewHandler(logger, statusService, notifier)

	hierarchyHandler := hierarchyhttp.NewHandler(
		logger,
		hierarchy.NewLoader(client, logger),
		hierarchy.NewExporter(client, logger),
		hierarchy.NewViewStore(redisClient, cfg.ViewStateTTL),
		notifier,
	)

	inspector := asynq.NewInspector(cache.AsynqOpt(cfg.RedisAddr))
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		StatusHandler:    statusHandler,
		HierarchyHandler: hierarchyHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("status_source", cfg.StatusSource))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
