package dialog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

// Connections names the two configured identity-provider links. Each
// yields independently scoped tokens.
type Connections struct {
	Graph   string
	Tickets string
}

// Dependencies bundles collaborators for the engine.
type Dependencies struct {
	States        StateStore
	Tokens        TokenProvider
	Graph         GraphService
	Tickets       TicketService
	Feedback      FeedbackService
	Connections   Connections
	CreateTimeout time.Duration
	ListPageSize  int
	Logger        *zap.Logger
}

// Engine drives the conversational dialog machine: token acquisition,
// action dispatch, and the multi-turn sub-flows. One snapshot per
// conversation; turns within a conversation are serialized by the caller.
type Engine struct {
	states        StateStore
	tokens        TokenProvider
	graph         GraphService
	tickets       TicketService
	feedback      FeedbackService
	connections   Connections
	createTimeout time.Duration
	listPageSize  int
	logger        *zap.Logger
}

// NewEngine constructs the engine.
func NewEngine(deps Dependencies) *Engine {
	timeout := deps.CreateTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := deps.ListPageSize
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Engine{
		states:        deps.States,
		tokens:        deps.Tokens,
		graph:         deps.Graph,
		tickets:       deps.Tickets,
		feedback:      deps.Feedback,
		connections:   deps.Connections,
		createTimeout: timeout,
		listPageSize:  pageSize,
		logger:        deps.Logger,
	}
}

// Begin starts a fresh dialog for the requested action. Any previous
// snapshot for the conversation is replaced.
func (e *Engine) Begin(ctx context.Context, act Activity, action Action, feedback *FeedbackContext, r Responder) error {
	snapshot := newSnapshot(action, act.UserID, act.UserName)
	snapshot.Feedback = feedback
	return e.ensureToken(ctx, snapshot, act, r)
}

// Continue resumes a suspended dialog with the new inbound activity. It
// reports false when no dialog is active for the conversation.
func (e *Engine) Continue(ctx context.Context, act Activity, r Responder) (bool, error) {
	snapshot, err := e.states.Load(ctx, act.ConversationID)
	if err != nil {
		return false, err
	}
	if snapshot == nil {
		return false, nil
	}

	switch snapshot.State {
	case StateTokenPending:
		return true, e.resumeToken(ctx, snapshot, act, r)
	case StateTicketTitle:
		return true, e.continueTitle(ctx, snapshot, act, r)
	case StateTicketDescription:
		return true, e.continueDescription(ctx, snapshot, act, r)
	case StateTicketConfirm:
		return true, e.continueConfirm(ctx, snapshot, act, r)
	case StateFeedbackForm:
		return true, e.continueFeedbackForm(ctx, snapshot, act, r)
	default:
		_ = e.states.Clear(ctx, act.ConversationID)
		return true, fmt.Errorf("unknown dialog state %q", snapshot.State)
	}
}

// end tears the dialog down; the next command starts from scratch.
func (e *Engine) end(ctx context.Context, conversationID string) {
	if err := e.states.Clear(ctx, conversationID); err != nil {
		e.logger.Warn("failed to clear dialog state",
			zap.String("conversation_id", conversationID), zap.Error(err))
	}
}

// suspend persists the snapshot so the next inbound activity resumes it.
func (e *Engine) suspend(ctx context.Context, conversationID string, snapshot *Snapshot) error {
	return e.states.Save(ctx, conversationID, snapshot)
}

func (e *Engine) recordUser(snapshot *Snapshot, act Activity, text string) {
	snapshot.Messages = append(snapshot.Messages, domain.SessionMessage{
		MessageID: act.ActivityID,
		From:      act.UserName,
		Text:      text,
		Timestamp: time.Now().UTC(),
		Type:      "user",
	})
}

func (e *Engine) recordBot(snapshot *Snapshot, text string) {
	snapshot.Messages = append(snapshot.Messages, domain.SessionMessage{
		From:      "bot",
		Text:      text,
		Timestamp: time.Now().UTC(),
		Type:      "bot",
	})
}

// say sends text and mirrors it into the session log.
func (e *Engine) say(ctx context.Context, snapshot *Snapshot, r Responder, text string) error {
	e.recordBot(snapshot, text)
	return r.SendText(ctx, text)
}
