package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nusantara-hq/gapura/cmd/gapura/cli"
	"github.com/nusantara-hq/gapura/internal/app"
	"github.com/nusantara-hq/gapura/internal/auth"
	"github.com/nusantara-hq/gapura/internal/directory"
	"github.com/nusantara-hq/gapura/internal/observability"
	"github.com/nusantara-hq/gapura/internal/platform/cache"
	"github.com/nusantara-hq/gapura/internal/platform/db"
	"github.com/nusantara-hq/gapura/internal/rbac"
	"github.com/nusantara-hq/gapura/internal/roles"
	"github.com/nusantara-hq/gapura/internal/rolesync"
	"github.com/nusantara-hq/gapura/internal/shared"
	"github.com/nusantara-hq/gapura/internal/users"
	"github.com/nusantara-hq/gapura/jobs"
)

const tokenIssuerName = "gapura"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	auditLogger := shared.NewAuditLogger(pool)

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, auditLogger)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger)

	syncer := rolesync.NewSyncer(rolesRepo, logger)

	// Subcommand mode for operational tooling, everything else boots the
	// HTTP server.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "roles":
			os.Exit(runRolesCommand(ctx, syncer))
		case "jobs":
			os.Exit(runJobsCommand(ctx, cfg.RedisAddr, logger))
		}
	}

	if report, err := syncer.AutoSync(ctx); err != nil {
		logger.Error("system role sync", slog.Any("error", err))
		os.Exit(1)
	} else if len(report.Created) > 0 || len(report.Repaired) > 0 {
		logger.Info("system roles reconciled",
			slog.Int("created", len(report.Created)),
			slog.Int("repaired", len(report.Repaired)),
		)
	}

	metrics := observability.NewMetrics()

	dir := directory.New(usersService, rolesService)
	resolver := rbac.NewResolver(dir, logger)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, tokenIssuerName, cfg.AccessTokenTTL)
	refreshStore := auth.NewRefreshStore(redisClient, cfg.RefreshTokenTTL)
	throttle := auth.NewLoginThrottle(redisClient, int64(cfg.LoginMaxAttempts), cfg.LoginThrottleWindow)

	authService := auth.NewService(usersService, rolesService, issuer, refreshStore, throttle)
	authHandler := auth.NewHandler(logger, authService)

	rbacMiddleware := rbac.Middleware{
		Verifier: issuer,
		Resolver: resolver,
		Logger:   logger,
		Metrics:  metrics,
	}

	rolesHandler := roles.NewHandler(logger, rolesService, rbacMiddleware)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)
	rbacHandler := rbac.NewHandler(logger, resolver, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthHandler:  authHandler,
		RolesHandler: rolesHandler,
		UsersHandler: usersHandler,
		RBACHandler:  rbacHandler,
		JobHandler:   jobHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
}

func runRolesCommand(ctx context.Context, syncer *rolesync.Syncer) int {
	rolesCLI := cli.NewRolesCLI(syncer)
	jsonOut := false
	sub := ""
	for _, arg := range os.Args[2:] {
		switch arg {
		case "--json":
			jsonOut = true
		default:
			if sub == "" {
				sub = arg
			}
		}
	}
	opts := cli.RolesOptions{JSONOutput: jsonOut}
	switch sub {
	case "diff":
		return rolesCLI.DiffCommand(ctx, opts)
	case "sync":
		return rolesCLI.SyncCommand(ctx, opts)
	default:
		slog.Default().Error("unknown roles subcommand", slog.String("subcommand", sub))
		return 2
	}
}

func runJobsCommand(ctx context.Context, redisAddr string, logger *slog.Logger) int {
	if len(os.Args) < 4 || os.Args[2] != "trigger" {
		logger.Error("usage: gapura jobs trigger <task>")
		return 2
	}
	jobsCLI, err := cli.NewJobsCLI(redisAddr)
	if err != nil {
		logger.Error("init jobs cli", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
	}()
	info, err := jobsCLI.Trigger(ctx, os.Args[3])
	if err != nil {
		logger.Error("trigger job", slog.Any("error", err))
		return 1
	}
	logger.Info("job enqueued", slog.String("task", info.Type), slog.String("id", info.ID))
	return 0
}
