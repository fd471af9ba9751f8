package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

// PostgresTicketStore persists tickets in a partitioned table keyed by
// (user_id, id).
type PostgresTicketStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresTicketStore instantiates the store.
func NewPostgresTicketStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresTicketStore {
	return &PostgresTicketStore{pool: pool, logger: logger}
}

const ticketColumns = `user_id, id, display_name, title, description, status,
        created_at, updated_at, deleted, version,
        conversation_id, session_id, tenant_id, channel_id, locale, messages`

// Create inserts a fresh ticket with status New.
func (s *PostgresTicketStore) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	input.Normalize()
	now := time.Now().UTC()
	ticket := domain.Ticket{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		DisplayName: input.DisplayName,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TicketStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ticket.ApplySession(input.Session)

	const query = `
        INSERT INTO tickets (user_id, id, display_name, title, description, status,
            created_at, updated_at, deleted, version,
            conversation_id, session_id, tenant_id, channel_id, locale, messages)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,0,$9,$10,$11,$12,$13,$14)`
	_, err := s.pool.Exec(ctx, query,
		ticket.UserID,
		ticket.ID,
		ticket.DisplayName,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ConversationID,
		ticket.SessionID,
		ticket.TenantID,
		ticket.ChannelID,
		ticket.Locale,
		ticket.Messages,
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("created ticket",
		zap.String("ticket_id", ticket.ID),
		zap.String("user_id", ticket.UserID))
	return &ticket, nil
}

// Get fetches a live ticket scoped to its owner.
func (s *PostgresTicketStore) Get(ctx context.Context, userID, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets WHERE user_id=$1 AND id=$2 AND deleted=FALSE`
	ticket, err := s.fetchSingle(ctx, query, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (s *PostgresTicketStore) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := s.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.UserID,
		&ticket.ID,
		&ticket.DisplayName,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.Deleted,
		&ticket.Version,
		&ticket.ConversationID,
		&ticket.SessionID,
		&ticket.TenantID,
		&ticket.ChannelID,
		&ticket.Locale,
		&ticket.Messages,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListByUser returns live tickets for one user, most recently updated first.
func (s *PostgresTicketStore) ListByUser(ctx context.Context, userID string, top int) ([]domain.Ticket, error) {
	if top <= 0 {
		top = 10
	}
	const query = `SELECT ` + ticketColumns + `
        FROM tickets WHERE user_id=$1 AND deleted=FALSE
        ORDER BY updated_at DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, userID, top)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := make([]domain.Ticket, 0)
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.UserID,
			&ticket.ID,
			&ticket.DisplayName,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.Deleted,
			&ticket.Version,
			&ticket.ConversationID,
			&ticket.SessionID,
			&ticket.TenantID,
			&ticket.ChannelID,
			&ticket.Locale,
			&ticket.Messages,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

// UpdateStatus mutates a live ticket. A non-empty etag must match the
// stored version exactly; a mismatch leaves the record unchanged and
// surfaces ErrConflict.
func (s *PostgresTicketStore) UpdateStatus(ctx context.Context, userID, id string, status domain.TicketStatus, etag string) (*domain.Ticket, error) {
	version, conditional, err := parseEtag(etag)
	if err != nil {
		// An unparseable token can never match the stored version.
		if _, probeErr := s.Get(ctx, userID, id); probeErr != nil {
			return nil, probeErr
		}
		return nil, ErrConflict
	}

	query := `
        UPDATE tickets SET status=$1, updated_at=NOW(), version=version+1
        WHERE user_id=$2 AND id=$3 AND deleted=FALSE`
	args := []any{status, userID, id}
	if conditional {
		args = append(args, version)
		query += ` AND version=$4`
	}
	query += ` RETURNING ` + ticketColumns

	ticket, err := s.fetchSingle(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if !conditional {
				return nil, ErrNotFound
			}
			// Distinguish a stale token from a missing ticket.
			if _, probeErr := s.Get(ctx, userID, id); probeErr != nil {
				return nil, probeErr
			}
			return nil, ErrConflict
		}
		return nil, err
	}

	s.logger.Info("updated ticket status",
		zap.String("ticket_id", id),
		zap.String("user_id", userID),
		zap.String("status", string(status)))
	return ticket, nil
}

// SoftDelete marks a ticket invisible without removing the row.
func (s *PostgresTicketStore) SoftDelete(ctx context.Context, userID, id string, etag string) (bool, error) {
	version, conditional, err := parseEtag(etag)
	if err != nil {
		if _, probeErr := s.Get(ctx, userID, id); probeErr != nil {
			if errors.Is(probeErr, ErrNotFound) {
				return s.deletedOrMissing(ctx, userID, id)
			}
			return false, probeErr
		}
		return false, ErrConflict
	}

	query := `
        UPDATE tickets SET deleted=TRUE, updated_at=NOW(), version=version+1
        WHERE user_id=$1 AND id=$2 AND deleted=FALSE`
	args := []any{userID, id}
	if conditional {
		args = append(args, version)
		query += ` AND version=$3`
	}

	cmd, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() > 0 {
		s.logger.Info("soft deleted ticket", zap.String("ticket_id", id), zap.String("user_id", userID))
		return true, nil
	}
	if conditional {
		if _, probeErr := s.Get(ctx, userID, id); probeErr == nil {
			return false, ErrConflict
		} else if !errors.Is(probeErr, ErrNotFound) {
			return false, probeErr
		}
	}
	return s.deletedOrMissing(ctx, userID, id)
}

// deletedOrMissing reports true when the ticket exists but is already
// soft-deleted (idempotent no-op), false when it never existed.
func (s *PostgresTicketStore) deletedOrMissing(ctx context.Context, userID, id string) (bool, error) {
	const query = `SELECT deleted FROM tickets WHERE user_id=$1 AND id=$2`
	var deleted bool
	if err := s.pool.QueryRow(ctx, query, userID, id).Scan(&deleted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return deleted, nil
}

func parseEtag(etag string) (int, bool, error) {
	if etag == "" {
		return 0, false, nil
	}
	version, err := strconv.Atoi(etag)
	if err != nil {
		return 0, true, err
	}
	return version, true, nil
}
