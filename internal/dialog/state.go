package dialog

import (
	"context"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

// State names a suspension point in the dialog machine. A persisted state
// means the engine is waiting for the next inbound activity to resume.
type State string

const (
	// StateTokenPending waits on an interactive sign-in callback.
	StateTokenPending State = "TOKEN_PENDING"

	// Create-ticket waterfall suspension points, in order.
	StateTicketTitle       State = "TICKET_TITLE"
	StateTicketDescription State = "TICKET_DESCRIPTION"
	StateTicketConfirm     State = "TICKET_CONFIRM"

	// StateFeedbackForm waits on the submitted feedback form.
	StateFeedbackForm State = "FEEDBACK_FORM"
)

// Snapshot is the explicit persisted (state, values) pair for one active
// dialog, addressed by conversation id. One value per conversation; the
// engine loads it, computes the next pair, and persists or clears it.
type Snapshot struct {
	State    State  `json:"state"`
	Action   Action `json:"action"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`

	// Tokens maps connection name to acquired token; keys unique per
	// connection, filled one connection at a time.
	Tokens map[string]string `json:"tokens,omitempty"`

	// PendingConnection is set while suspended on interactive sign-in.
	PendingConnection string `json:"pendingConnection,omitempty"`

	// Collected create-ticket values.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Feedback *FeedbackContext `json:"feedback,omitempty"`

	// Messages is the ordered session log accumulated across steps and
	// attached to the create request for audit. Best effort only.
	Messages []domain.SessionMessage `json:"messages,omitempty"`
}

func newSnapshot(action Action, userID, userName string) *Snapshot {
	return &Snapshot{
		Action:   action,
		UserID:   userID,
		UserName: userName,
		Tokens:   map[string]string{},
	}
}

// StateStore persists dialog snapshots between turns, keyed by
// conversation id. Load returns (nil, nil) when no dialog is active.
type StateStore interface {
	Load(ctx context.Context, conversationID string) (*Snapshot, error)
	Save(ctx context.Context, conversationID string, snapshot *Snapshot) error
	Clear(ctx context.Context, conversationID string) error
}
