package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/streetburger/issuedesk/internal/api/http"
	"github.com/streetburger/issuedesk/internal/api/http/handlers"
	"github.com/streetburger/issuedesk/internal/ai"
	"github.com/streetburger/issuedesk/internal/auth"
	"github.com/streetburger/issuedesk/internal/config"
	"github.com/streetburger/issuedesk/internal/events"
	"github.com/streetburger/issuedesk/internal/observability"
	"github.com/streetburger/issuedesk/internal/persistence"
	"github.com/streetburger/issuedesk/internal/policy"
	"github.com/streetburger/issuedesk/internal/replica"
	"github.com/streetburger/issuedesk/internal/repository"
	"github.com/streetburger/issuedesk/internal/service"
	"github.com/streetburger/issuedesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	location, err := cfg.Report.Location()
	if err != nil {
		logger.Fatal("invalid report timezone", zap.Error(err))
	}
	catalog, err := config.LoadCatalog(cfg.Catalog)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		sessions    auth.SessionStore
		redisHealth handlers.Pinger
	)
	if redis != nil {
		sessions = auth.NewRedisSessionStore(redis.Client)
		redisHealth = redis
	} else {
		sessions = auth.NewMemorySessionStore(nil)
	}

	pool := pg.PoolHandle()
	issueRepo := repository.NewIssueRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	credentialRepo := repository.NewCredentialRepository(pool)
	recoveryRepo := repository.NewRecoveryRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	gateway := ai.NewGateway(ai.FromConfig(cfg.AI), logger, metrics)
	if !gateway.Configured() {
		logger.Warn("GEMINI_API_KEY not provided; AI suggestions disabled")
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CredentialRepo: credentialRepo,
		ProfileRepo:    userRepo,
		RecoveryRepo:   recoveryRepo,
		Sessions:       sessions,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo: userRepo,
		Accounts: authService,
		Policy:   policy.Default,
		Logger:   logger,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:  issueRepo,
		UserRepo:   userRepo,
		Gateway:    gateway,
		Catalog:    catalog,
		Policy:     policy.Default,
		Dispatcher: dispatcher,
		Logger:     logger,
		Location:   location,
	})

	issueReplica := replica.New(issueRepo, cfg.Report.PollInterval(), logger, metrics)
	reportService := service.NewReportService(issueReplica, location, logger)

	stopNotifications := worker.StartNotificationWorker(
		service.NewNotificationService(dispatcher, logger, cfg.Notification))
	defer stopNotifications()
	stopReplica := worker.StartReplicaWorker(ctx, issueReplica, dispatcher, logger)
	defer stopReplica()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), sessions, userService)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 16 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, handlers.HealthDependencies{
			Postgres: pg,
			Redis:    redisHealth,
			Replica:  issueReplica,
			Metrics:  metrics,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService, policy.Default),
		Issues:         handlers.NewIssuesHandler(issueService),
		Reports:        handlers.NewReportsHandler(reportService),
		Catalog:        handlers.NewCatalogHandler(catalog),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
