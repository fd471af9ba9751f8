package dialog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const genericFailureMessage = "An error occurred performing the requested action."

// dispatch is step two: execute the action with the acquired tokens.
// Every branch either ends the dialog or hands off to a sub-flow that
// suspends it; no action chains into another.
func (e *Engine) dispatch(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	switch snapshot.Action {
	case ActionProfile:
		return e.runGraph(ctx, snapshot, act, r, e.executeProfile)
	case ActionRecentMail:
		return e.runGraph(ctx, snapshot, act, r, e.executeRecentMail)
	case ActionSendTestMail:
		return e.runGraph(ctx, snapshot, act, r, e.executeSendTestMail)
	case ActionCreateTicket:
		return e.beginCreateTicket(ctx, snapshot, act, r)
	case ActionListTickets:
		return e.executeListTickets(ctx, snapshot, act, r)
	case ActionSubmitFeedback, ActionShowFeedbackForm:
		return e.beginFeedback(ctx, snapshot, act, r)
	default:
		if err := r.SendText(ctx, "Unknown action."); err != nil {
			return err
		}
		e.logger.Warn("dispatch received unclassified action", zap.String("action", string(snapshot.Action)))
		e.end(ctx, act.ConversationID)
		return nil
	}
}

type graphStep func(ctx context.Context, token string, r Responder) error

// runGraph executes a Graph-backed action. Capability errors are logged
// with context and converted into one generic user-facing message; the
// raw error never reaches the user.
func (e *Engine) runGraph(ctx context.Context, snapshot *Snapshot, act Activity, r Responder, step graphStep) error {
	token := snapshot.Tokens[e.connections.Graph]
	if err := step(ctx, token, r); err != nil {
		e.logger.Error("graph action failed",
			zap.String("action", string(snapshot.Action)),
			zap.String("user_id", snapshot.UserID),
			zap.Error(err))
		if sendErr := r.SendText(ctx, genericFailureMessage); sendErr != nil {
			return sendErr
		}
	}
	e.end(ctx, act.ConversationID)
	return nil
}

func (e *Engine) executeProfile(ctx context.Context, token string, r Responder) error {
	me, err := e.graph.Me(ctx, token)
	if err != nil {
		return err
	}
	title := me.JobTitle
	if title == "" {
		title = "Unknown"
	}
	return r.SendText(ctx, fmt.Sprintf("Profile: %s (%s) | Title: %s", me.DisplayName, me.UserPrincipalName, title))
}

func (e *Engine) executeRecentMail(ctx context.Context, token string, r Responder) error {
	messages, err := e.graph.RecentMail(ctx, token, 5)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return r.SendText(ctx, "No recent inbox messages.")
	}
	lines := []string{"Recent mail:"}
	for _, m := range messages {
		status := "[New]"
		if m.IsRead {
			status = "[Read]"
		}
		lines = append(lines, fmt.Sprintf("%s %s | %s | From: %s",
			status, m.Received.Local().Format("2006-01-02 15:04"), m.Subject, m.From))
	}
	return r.SendText(ctx, strings.Join(lines, "\n"))
}

func (e *Engine) executeSendTestMail(ctx context.Context, token string, r Responder) error {
	me, err := e.graph.Me(ctx, token)
	if err != nil {
		return err
	}
	to := me.Mail
	if to == "" {
		to = me.UserPrincipalName
	}
	if err := e.graph.SendMail(ctx, token, to, "Test mail from Teams Bot", "This is a test message sent via Microsoft Graph."); err != nil {
		return err
	}
	return r.SendText(ctx, fmt.Sprintf("Test mail sent to %s.", to))
}

// executeListTickets renders the user's most recent tickets.
func (e *Engine) executeListTickets(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	token := snapshot.Tokens[e.connections.Tickets]
	tickets, err := e.tickets.List(ctx, token, e.listPageSize)
	if err != nil {
		e.logger.Error("list tickets failed",
			zap.String("user_id", snapshot.UserID),
			zap.Error(err))
		if sendErr := r.SendText(ctx, genericFailureMessage); sendErr != nil {
			return sendErr
		}
		e.end(ctx, act.ConversationID)
		return nil
	}
	if len(tickets) == 0 {
		if err := r.SendText(ctx, "No tickets found."); err != nil {
			return err
		}
		e.end(ctx, act.ConversationID)
		return nil
	}
	lines := []string{"Your tickets:"}
	for _, t := range tickets {
		lines = append(lines, fmt.Sprintf("[%s] %s (%s)", t.Status, t.Title, t.ID))
	}
	if err := r.SendText(ctx, strings.Join(lines, "\n")); err != nil {
		return err
	}
	e.end(ctx, act.ConversationID)
	return nil
}
