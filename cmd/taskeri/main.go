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
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/taskeri/taskeri/internal/app"
	"github.com/taskeri/taskeri/internal/auth"
	"github.com/taskeri/taskeri/internal/authz"
	"github.com/taskeri/taskeri/internal/observability"
	"github.com/taskeri/taskeri/internal/platform/cache"
	"github.com/taskeri/taskeri/internal/platform/db"
	"github.com/taskeri/taskeri/internal/provisioning"
	"github.com/taskeri/taskeri/internal/rbac"
	"github.com/taskeri/taskeri/internal/roles"
	"github.com/taskeri/taskeri/internal/routes"
	"github.com/taskeri/taskeri/internal/tenancy"
	"github.com/taskeri/taskeri/internal/tenants"
	"github.com/taskeri/taskeri/internal/token"
	"github.com/taskeri/taskeri/internal/users"
	"github.com/taskeri/taskeri/jobs"
)

func main() {
	if app.SkipStartup("api") {
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
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("taskeri exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	tokens, err := token.NewManager(cfg.SecretKey, cfg.Algorithm, cfg.TokenTTL())
	if err != nil {
		return err
	}
	table, err := routes.LoadFile(cfg.RoutesFile)
	if err != nil {
		return err
	}
	globalNS, err := tenancy.ParseNamespace(cfg.GlobalSchema)
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.DSN(), db.Options{MaxConns: cfg.DBMaxConns, Logger: logger})
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.EnsureGlobal(ctx, pool, globalNS.String()); err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	resolver := tenancy.NewResolver(tenancy.PoolAcquirer(pool), globalNS, logger)

	dispatcherCfg := authz.Config{
		Verifier: tokens,
		Binder:   resolver,
		Routes:   table,
		Logger:   logger,
		Metrics:  metrics,
	}
	var (
		revoker auth.Revoker
		audits  tenants.AuditScheduler
		inspect jobs.QueueInspector
	)
	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("redis unavailable, token revocation and tenant audits disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		revocations := token.NewRevocations(redisClient)
		dispatcherCfg.Revocations = revocations
		revoker = revocations

		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpt)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		audits = jobClient

		inspector := asynq.NewInspector(redisOpt)
		defer func() { _ = inspector.Close() }()
		inspect = inspector
	}

	dispatcher, err := authz.NewDispatcher(dispatcherCfg)
	if err != nil {
		return err
	}

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	provisioner := provisioning.NewService(resolver, logger,
		provisioning.WithHashCost(cost),
		provisioning.WithMetrics(metrics),
	)
	directory := tenants.NewRepository(tenancy.ConnFromContext)
	registrar := tenants.NewRegistrar(directory, provisioner, audits, logger)

	rbacService := rbac.NewService(tenancy.ConnFromContext)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		Authorize:          dispatcher.Middleware,
		AuthHandler:        auth.NewHandler(logger, auth.NewService(directory, resolver, tokens, revoker), cfg.LoginLimitPerMin),
		TenantsHandler:     tenants.NewHandler(logger, registrar),
		UsersHandler:       users.NewHandler(logger, users.NewService(users.NewRepository(tenancy.ConnFromContext), rbacService)),
		RolesHandler:       roles.NewHandler(logger, roles.NewService(roles.NewRepository(tenancy.ConnFromContext)), rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService),
		JobHandler:         jobs.NewHandler(inspect, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
