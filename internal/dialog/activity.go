package dialog

import "context"

// Activity is the engine's view of one inbound conversational event. The
// transport adapter fills it from whatever schema the channel speaks.
type Activity struct {
	ConversationID string
	ActivityID     string
	UserID         string
	UserName       string
	Text           string

	// Value carries a structured submit payload (feedback form).
	Value map[string]any

	// Token carries the interactive sign-in callback result, if this
	// activity is one. Empty means the user cancelled or the flow failed.
	Token string

	TenantID  string
	ChannelID string
	Locale    string
}

// Responder delivers the engine's output back to the conversation.
// Rendering (cards, suggested actions) is the adapter's concern.
type Responder interface {
	SendText(ctx context.Context, text string) error

	// RequestSignIn suspends the conversation on an interactive sign-in
	// bound to the named connection.
	RequestSignIn(ctx context.Context, connectionName string) error

	// SendFeedbackForm presents the reaction/comment form.
	SendFeedbackForm(ctx context.Context, feedback FeedbackContext) error
}

// TokenProvider attempts silent token retrieval for a named connection.
// An empty token means no cached grant exists; errors are treated the same
// way by callers, never as fatal.
type TokenProvider interface {
	GetUserToken(ctx context.Context, userID, connectionName string) (string, error)
}
