package dto

import (
	"time"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

// CreateFeedbackRequest payload. Feedback endpoints are unauthenticated;
// the claimed identity is logged, not trusted.
type CreateFeedbackRequest struct {
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	ConversationID string `json:"conversationId"`
	ActivityID     string `json:"activityId"`
	BotResponse    string `json:"botResponse"`
	Reaction       string `json:"reaction"`
	Comment        string `json:"comment,omitempty"`
	Category       string `json:"category,omitempty"`
	Source         string `json:"source,omitempty"`
}

// FeedbackResponse is the wire shape of a feedback record.
type FeedbackResponse struct {
	ID             string                  `json:"id"`
	UserID         string                  `json:"userId"`
	UserName       string                  `json:"userName"`
	ConversationID string                  `json:"conversationId"`
	ActivityID     string                  `json:"activityId"`
	BotResponse    string                  `json:"botResponse"`
	Reaction       domain.FeedbackReaction `json:"reaction"`
	Comment        string                  `json:"comment,omitempty"`
	Category       string                  `json:"category,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
	Source         string                  `json:"source"`
}

// FromFeedback maps a domain record onto the response shape.
func FromFeedback(f *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:             f.ID,
		UserID:         f.UserID,
		UserName:       f.UserName,
		ConversationID: f.ConversationID,
		ActivityID:     f.ActivityID,
		BotResponse:    f.BotResponse,
		Reaction:       f.Reaction,
		Comment:        f.Comment,
		Category:       f.Category,
		CreatedAt:      f.CreatedAt,
		Source:         f.Source,
	}
}
