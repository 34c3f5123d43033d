package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

// stores groups the repositories backing the services.
type stores struct {
	tickets  repository.TicketRepository
	comments repository.TicketCommentRepository
	users    repository.UserRepository
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	location, err := cfg.App.Location()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	readiness := map[string]handlers.Pinger{}
	var repos stores
	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		repos = stores{tickets: mem.Tickets(), comments: mem.Comments(), users: mem.Users()}
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("failed to connect postgres: %w", err)
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		readiness["postgres"] = pg
		repos = stores{
			tickets:  repository.NewTicketRepository(pg.Pool),
			comments: repository.NewTicketCommentRepository(pg.Pool),
			users:    repository.NewUserRepository(pg.Pool),
		}
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	if rdb := persistence.NewRedis(ctx, cfg.Redis, logger); rdb != nil {
		defer rdb.Close()
		readiness["redis"] = rdb
		dispatcher = events.NewRedisDispatcher(dispatcher, rdb.Client, cfg.Redis.EventsChannel, logger)
	}

	metrics := observability.NewMetrics()
	bounds := service.PageBounds{DefaultPageSize: cfg.Tickets.DefaultPageSize, MaxPageSize: cfg.Tickets.MaxPageSize}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   repos.users,
		Tokens:     tokens,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	userService := service.NewUserService(repos.users, bounds, cfg.Auth.BcryptCost)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.tickets,
		CommentRepo: repos.comments,
		UserRepo:    repos.users,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Bounds:      bounds,
		Location:    location,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(dispatcher, notificationService, metrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.App.StoreDriver))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-waitForShutdown():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(10 * time.Second)
}

func waitForShutdown() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
