package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/domain"
	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

const (
	minTicketTitleLength       = 3
	maxTicketTitleLength       = 140
	minTicketDescriptionLength = 10
	maxTicketDescriptionLength = 4000
)

const (
	promptTitle            = "Create New Support Ticket. Please enter a title for your support ticket:"
	retryTitle             = "Please provide a valid title for your ticket (at least 3 characters):"
	promptDescription      = "Please provide a detailed description of your issue:"
	retryDescription       = "Please provide a more detailed description (at least 10 characters):"
	retryConfirm           = "Please answer yes or no."
	cancelledMessage       = "Ticket creation cancelled."
	creatingMessage        = "Creating your ticket... Please wait a moment."
	timeoutMessage         = "Ticket creation timed out. The service is taking longer than expected. Please try again in a few moments."
	createFailedMessage    = "An unexpected error occurred while creating the ticket. Please try again later."
	createUnavailableHint  = "Failed to create ticket. The service may be temporarily unavailable. Please try again later."
)

// beginCreateTicket starts the waterfall: prompt for a title and suspend.
func (e *Engine) beginCreateTicket(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	if err := e.say(ctx, snapshot, r, promptTitle); err != nil {
		return err
	}
	snapshot.State = StateTicketTitle
	return e.suspend(ctx, act.ConversationID, snapshot)
}

// continueTitle validates the title; invalid input re-prompts without
// advancing the waterfall.
func (e *Engine) continueTitle(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	title := strings.TrimSpace(act.Text)
	e.recordUser(snapshot, act, act.Text)
	if len(title) < minTicketTitleLength || len(title) > maxTicketTitleLength {
		if err := e.say(ctx, snapshot, r, retryTitle); err != nil {
			return err
		}
		return e.suspend(ctx, act.ConversationID, snapshot)
	}

	snapshot.Title = title
	snapshot.State = StateTicketDescription
	if err := e.say(ctx, snapshot, r, promptDescription); err != nil {
		return err
	}
	return e.suspend(ctx, act.ConversationID, snapshot)
}

// continueDescription validates the description with the same retry semantics.
func (e *Engine) continueDescription(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	description := strings.TrimSpace(act.Text)
	e.recordUser(snapshot, act, act.Text)
	if len(description) < minTicketDescriptionLength || len(description) > maxTicketDescriptionLength {
		if err := e.say(ctx, snapshot, r, retryDescription); err != nil {
			return err
		}
		return e.suspend(ctx, act.ConversationID, snapshot)
	}

	snapshot.Description = description
	snapshot.State = StateTicketConfirm
	summary := fmt.Sprintf(
		"Ticket Summary\nTitle: %s\nDescription: %s\nCreated by: %s\nDo you want to create this support ticket? (yes/no)",
		snapshot.Title, snapshot.Description, snapshot.UserName)
	if err := e.say(ctx, snapshot, r, summary); err != nil {
		return err
	}
	return e.suspend(ctx, act.ConversationID, snapshot)
}

// continueConfirm handles the yes/no answer. "no" ends the dialog without
// touching the store.
func (e *Engine) continueConfirm(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	e.recordUser(snapshot, act, act.Text)
	switch strings.ToLower(strings.TrimSpace(act.Text)) {
	case "yes", "y", "confirm", "ok":
		return e.createTicket(ctx, snapshot, act, r)
	case "no", "n", "cancel":
		if err := r.SendText(ctx, cancelledMessage); err != nil {
			return err
		}
		e.end(ctx, act.ConversationID)
		return nil
	default:
		if err := e.say(ctx, snapshot, r, retryConfirm); err != nil {
			return err
		}
		return e.suspend(ctx, act.ConversationID, snapshot)
	}
}

// createTicket performs the actual create under a bounded timeout composed
// with the ambient cancellation signal. Three outcome classes: success,
// timeout, and everything else; the raw error is only ever logged.
func (e *Engine) createTicket(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	if err := r.SendText(ctx, creatingMessage); err != nil {
		return err
	}

	createCtx, cancel := context.WithTimeout(ctx, e.createTimeout)
	defer cancel()

	token := snapshot.Tokens[e.connections.Tickets]
	session := e.buildSession(snapshot, act)
	started := time.Now()
	ticket, err := e.tickets.Create(createCtx, token, snapshot.Title, snapshot.Description, session)

	switch {
	case err == nil && ticket != nil:
		if sendErr := r.SendText(ctx, fmt.Sprintf(
			"Ticket created successfully.\nTicket ID: %s\nTitle: %s\nStatus: %s\nCreated by: %s",
			ticket.ID, ticket.Title, ticket.Status, snapshot.UserName)); sendErr != nil {
			return sendErr
		}
	case isTimeout(err):
		e.logger.Warn("ticket creation timed out",
			zap.String("title", snapshot.Title),
			zap.String("user_id", snapshot.UserID),
			zap.Duration("elapsed", time.Since(started)))
		if sendErr := r.SendText(ctx, timeoutMessage); sendErr != nil {
			return sendErr
		}
	case isStorageUnavailable(err):
		e.logger.Error("ticket service unavailable",
			zap.String("title", snapshot.Title),
			zap.String("user_id", snapshot.UserID),
			zap.Error(err))
		if sendErr := r.SendText(ctx, createUnavailableHint); sendErr != nil {
			return sendErr
		}
	default:
		e.logger.Error("ticket creation failed",
			zap.String("title", snapshot.Title),
			zap.String("user_id", snapshot.UserID),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		if sendErr := r.SendText(ctx, createFailedMessage); sendErr != nil {
			return sendErr
		}
	}

	e.end(ctx, act.ConversationID)
	return nil
}

// buildSession assembles the audit payload attached to the create request.
// Best effort: nothing here may block ticket creation.
func (e *Engine) buildSession(snapshot *Snapshot, act Activity) *domain.SessionInfo {
	return &domain.SessionInfo{
		ConversationID: act.ConversationID,
		SessionID:      act.ConversationID,
		UserID:         snapshot.UserID,
		UserName:       snapshot.UserName,
		TenantID:       act.TenantID,
		ChannelID:      act.ChannelID,
		Locale:         act.Locale,
		Timestamp:      time.Now().UTC(),
		Messages:       snapshot.Messages,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var domainErr *apperrors.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == "TIMEOUT"
}

func isStorageUnavailable(err error) bool {
	var domainErr *apperrors.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == "STORAGE_UNAVAILABLE"
}
