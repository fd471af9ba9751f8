package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/teams-support-bot/internal/domain"
	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

// CreateFeedbackInput is the payload for FeedbackStore.Create.
type CreateFeedbackInput struct {
	UserID         string
	UserName       string
	ConversationID string
	ActivityID     string
	BotResponse    string
	Reaction       string
	Comment        string
	Category       string
	Source         string
}

// Validate enforces the feedback contract before anything is persisted.
func (in *CreateFeedbackInput) Validate() error {
	details := map[string]any{}
	if strings.TrimSpace(in.UserID) == "" {
		details["userId"] = "required"
	}
	if strings.TrimSpace(in.ConversationID) == "" {
		details["conversationId"] = "required"
	}
	switch domain.FeedbackReaction(in.Reaction) {
	case domain.ReactionLike, domain.ReactionDislike:
	default:
		details["reaction"] = "must be 'like' or 'dislike'"
	}
	if len(in.Comment) > domain.MaxFeedbackCommentLength {
		details["comment"] = fmt.Sprintf("must be at most %d characters", domain.MaxFeedbackCommentLength)
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid feedback", details)
	}
	return nil
}

// FeedbackStore persists append-only feedback records.
type FeedbackStore interface {
	Create(ctx context.Context, input CreateFeedbackInput) (*domain.Feedback, error)

	// List filters by user and/or conversation (AND semantics, both
	// optional) and orders newest first.
	List(ctx context.Context, userID, conversationID string) ([]domain.Feedback, error)

	GetByID(ctx context.Context, id string) (*domain.Feedback, error)
}
