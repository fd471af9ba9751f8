package storage

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/config"
)

// NewTicketStore resolves the configured backend once at startup.
func NewTicketStore(cfg config.StorageConfig, pool *pgxpool.Pool, logger *zap.Logger) (TicketStore, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileTicketStore(cfg.TicketFilePath, logger)
	case config.BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres backend selected but no pool configured")
		}
		return NewPostgresTicketStore(pool, logger), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// NewFeedbackStore resolves the configured backend once at startup.
func NewFeedbackStore(cfg config.StorageConfig, pool *pgxpool.Pool, logger *zap.Logger) (FeedbackStore, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileFeedbackStore(cfg.FeedbackFilePath, logger)
	case config.BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres backend selected but no pool configured")
		}
		return NewPostgresFeedbackStore(pool, logger), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
