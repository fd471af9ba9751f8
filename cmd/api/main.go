package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/teams-support-bot/internal/api/http"
	"github.com/spec-kit/teams-support-bot/internal/api/http/handlers"
	"github.com/spec-kit/teams-support-bot/internal/auth"
	"github.com/spec-kit/teams-support-bot/internal/config"
	"github.com/spec-kit/teams-support-bot/internal/observability"
	"github.com/spec-kit/teams-support-bot/internal/persistence"
	"github.com/spec-kit/teams-support-bot/internal/storage"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthDeps := map[string]handlers.Pinger{}

	var pool *pgxpool.Pool
	if cfg.Storage.Backend == config.BackendPostgres {
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
		pool = pg.PoolHandle()
		healthDeps["postgres"] = pg
	}

	ticketStore, err := storage.NewTicketStore(cfg.Storage, pool, logger)
	if err != nil {
		logger.Fatal("failed to init ticket store", zap.Error(err))
	}
	feedbackStore, err := storage.NewFeedbackStore(cfg.Storage, pool, logger)
	if err != nil {
		logger.Fatal("failed to init feedback store", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Tickets:        handlers.NewTicketsHandler(ticketStore, logger),
		Feedback:       handlers.NewFeedbackHandler(feedbackStore, logger),
		AuthMiddleware: authMiddleware,
	}
	if cfg.App.Env == "development" {
		routes.DevAuth = handlers.NewAuthHandler(tokens)
	}
	httptransport.RegisterRoutes(app, routes)

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
