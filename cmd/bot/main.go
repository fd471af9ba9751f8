package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/botframework"
	"github.com/spec-kit/teams-support-bot/internal/config"
	"github.com/spec-kit/teams-support-bot/internal/dialog"
	"github.com/spec-kit/teams-support-bot/internal/graph"
	"github.com/spec-kit/teams-support-bot/internal/observability"
	"github.com/spec-kit/teams-support-bot/internal/persistence"
	"github.com/spec-kit/teams-support-bot/internal/ticketclient"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	credentials := botframework.NewAppCredentials(cfg.Bot.AppID, cfg.Bot.AppPassword, cfg.Bot.LoginURL)
	tokenService := botframework.NewTokenService(cfg.Bot.TokenServiceBaseURL, credentials, "msteams")
	connector := botframework.NewConnector(credentials)

	tickets := ticketclient.New(cfg.Bot.TicketAPIBaseURL)

	engine := dialog.NewEngine(dialog.Dependencies{
		States:   dialog.NewRedisStateStore(redis.Client, cfg.Bot.DialogStateTTL()),
		Tokens:   tokenService,
		Graph:    graph.NewHTTPClient(cfg.Bot.GraphBaseURL),
		Tickets:  tickets,
		Feedback: tickets,
		Connections: dialog.Connections{
			Graph:   cfg.Bot.GraphConnection,
			Tickets: cfg.Bot.TicketConnection,
		},
		CreateTimeout: cfg.Bot.CreateTimeout(),
		ListPageSize:  cfg.Bot.ListPageSize,
		Logger:        logger,
	})

	handler := botframework.NewMessageHandler(engine, connector, logger)

	app := fiber.New()
	app.Post("/api/messages", handler.Handle)
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	go func() {
		if err := app.Listen(cfg.Bot.Addr(cfg.App.Host)); err != nil {
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
