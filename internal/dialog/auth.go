package dialog

import (
	"context"

	"go.uber.org/zap"
)

// connectionFor resolves the connection name an action category needs.
func (e *Engine) connectionFor(category ResourceCategory) string {
	switch category {
	case CategoryGraph:
		return e.connections.Graph
	case CategoryTickets:
		return e.connections.Tickets
	default:
		return ""
	}
}

// ensureToken is step one of every dialog: classify the action, try a
// silent token fetch for its connection, and either dispatch immediately
// or suspend on an interactive sign-in. Connections are acquired one at a
// time; a conversation can only present one prompt per turn.
func (e *Engine) ensureToken(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	category := Classify(snapshot.Action)
	if category == CategoryNone {
		if err := r.SendText(ctx, "No actionable command supplied."); err != nil {
			return err
		}
		e.end(ctx, act.ConversationID)
		return nil
	}

	connection := e.connectionFor(category)
	if connection == "" {
		// Category needs no authentication: dispatch with an empty token set.
		return e.dispatch(ctx, snapshot, act, r)
	}

	token, err := e.tokens.GetUserToken(ctx, act.UserID, connection)
	if err != nil {
		// Silent failure (including timeout) is treated as absence, never fatal.
		e.logger.Warn("silent token fetch failed",
			zap.String("connection", connection),
			zap.String("user_id", act.UserID),
			zap.Error(err))
		token = ""
	}
	if token != "" {
		snapshot.Tokens[connection] = token
		return e.dispatch(ctx, snapshot, act, r)
	}

	// Need interactive sign-in: suspend until the callback arrives.
	if err := r.RequestSignIn(ctx, connection); err != nil {
		return err
	}
	snapshot.State = StateTokenPending
	snapshot.PendingConnection = connection
	return e.suspend(ctx, act.ConversationID, snapshot)
}

// resumeToken handles the sign-in callback. An empty result is a terminal
// failure for this dialog; nothing is retried automatically.
func (e *Engine) resumeToken(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	if act.Token == "" {
		e.logger.Info("interactive sign-in failed or cancelled",
			zap.String("connection", snapshot.PendingConnection),
			zap.String("user_id", snapshot.UserID))
		if err := r.SendText(ctx, "Authentication failed or was cancelled."); err != nil {
			return err
		}
		e.end(ctx, act.ConversationID)
		return nil
	}

	snapshot.Tokens[snapshot.PendingConnection] = act.Token
	snapshot.PendingConnection = ""
	snapshot.State = ""
	return e.dispatch(ctx, snapshot, act, r)
}
