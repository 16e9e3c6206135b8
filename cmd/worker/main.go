package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/taskeri/taskeri/internal/app"
	jobmetrics "github.com/taskeri/taskeri/internal/jobs"
	"github.com/taskeri/taskeri/internal/platform/db"
	"github.com/taskeri/taskeri/internal/provisioning"
	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/internal/tenants"
	"github.com/taskeri/taskeri/jobs"
)

func main() {
	if app.SkipStartup("worker") {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	globalNS, err := tenancy.ParseNamespace(cfg.GlobalSchema)
	if err != nil {
		logger.Error("global schema", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.DSN(), db.Options{MaxConns: cfg.DBMaxConns, Logger: logger})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	resolver := tenancy.NewResolver(tenancy.PoolAcquirer(pool), globalNS, logger)
	auditJob := jobs.NewTenantAuditJob(
		provisioning.NewAuditor(resolver),
		tenants.NewDirectory(resolver),
		logger,
		jobmetrics.NewMetrics(nil),
	)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTenantProvisioned, Handler: auditJob.HandleProvisioned},
			{Type: jobs.TaskTenantAuditSweep, Handler: auditJob.HandleSweep},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.TenantAuditCron, Task: jobs.NewTenantAuditSweepTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
