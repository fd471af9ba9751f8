package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

// PostgresFeedbackStore persists append-only feedback rows.
type PostgresFeedbackStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresFeedbackStore instantiates the store.
func NewPostgresFeedbackStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresFeedbackStore {
	return &PostgresFeedbackStore{pool: pool, logger: logger}
}

const feedbackColumns = `id, user_id, user_name, conversation_id, activity_id,
        bot_response, reaction, comment, category, created_at, source`

// Create validates and inserts an immutable feedback record.
func (s *PostgresFeedbackStore) Create(ctx context.Context, input CreateFeedbackInput) (*domain.Feedback, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	source := input.Source
	if source == "" {
		source = "TeamsBot"
	}
	record := domain.Feedback{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		UserName:       input.UserName,
		ConversationID: input.ConversationID,
		ActivityID:     input.ActivityID,
		BotResponse:    input.BotResponse,
		Reaction:       domain.FeedbackReaction(input.Reaction),
		Comment:        input.Comment,
		Category:       input.Category,
		CreatedAt:      time.Now().UTC(),
		Source:         source,
	}

	const query = `
        INSERT INTO feedback (id, user_id, user_name, conversation_id, activity_id,
            bot_response, reaction, comment, category, created_at, source)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := s.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.UserName,
		record.ConversationID,
		record.ActivityID,
		record.BotResponse,
		record.Reaction,
		record.Comment,
		record.Category,
		record.CreatedAt,
		record.Source,
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("created feedback",
		zap.String("feedback_id", record.ID),
		zap.String("user_id", record.UserID),
		zap.String("reaction", string(record.Reaction)))
	return &record, nil
}

// List filters by user and/or conversation, newest first.
func (s *PostgresFeedbackStore) List(ctx context.Context, userID, conversationID string) ([]domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE 1=1`
	args := []any{}
	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id=$%d", len(args))
	}
	if conversationID != "" {
		args = append(args, conversationID)
		query += fmt.Sprintf(" AND conversation_id=$%d", len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Feedback, 0)
	for rows.Next() {
		record, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, rows.Err()
}

// GetByID looks a record up by its id.
func (s *PostgresFeedbackStore) GetByID(ctx context.Context, id string) (*domain.Feedback, error) {
	const query = `SELECT ` + feedbackColumns + ` FROM feedback WHERE id=$1`
	row := s.pool.QueryRow(ctx, query, id)
	record, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func scanFeedback(row pgx.Row) (*domain.Feedback, error) {
	var record domain.Feedback
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.UserName,
		&record.ConversationID,
		&record.ActivityID,
		&record.BotResponse,
		&record.Reaction,
		&record.Comment,
		&record.Category,
		&record.CreatedAt,
		&record.Source,
	); err != nil {
		return nil, err
	}
	return &record, nil
}
