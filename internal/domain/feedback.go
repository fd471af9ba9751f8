package domain

import "time"

// FeedbackReaction is the rating a user gives a bot response.
type FeedbackReaction string

const (
	ReactionLike    FeedbackReaction = "like"
	ReactionDislike FeedbackReaction = "dislike"
)

// MaxFeedbackCommentLength bounds the free-form comment.
const MaxFeedbackCommentLength = 1000

// Feedback records a user's rating of a single bot response. Records are
// append-only: once created they are never updated or deleted.
type Feedback struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	UserName       string           `json:"userName"`
	ConversationID string           `json:"conversationId"`
	ActivityID     string           `json:"activityId"`
	BotResponse    string           `json:"botResponse"`
	Reaction       FeedbackReaction `json:"reaction"`
	Comment        string           `json:"comment,omitempty"`
	Category       string           `json:"category,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	Source         string           `json:"source"`
}
