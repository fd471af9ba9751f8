package botframework

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/dialog"
)

// MessageHandler is the bot's single HTTP surface: it accepts channel
// activities, routes them through the dialog engine, and replies through
// the connector.
type MessageHandler struct {
	engine    *dialog.Engine
	connector *Connector
	logger    *zap.Logger
}

// NewMessageHandler wires the messaging endpoint.
func NewMessageHandler(engine *dialog.Engine, connector *Connector, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{engine: engine, connector: connector, logger: logger}
}

// Handle processes one inbound activity. Replies always travel out of
// band through the service URL; the HTTP response itself is empty.
func (h *MessageHandler) Handle(c *fiber.Ctx) error {
	var inbound InboundActivity
	if err := c.BodyParser(&inbound); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "malformed activity"})
	}
	if inbound.Conversation.ID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing conversation id"})
	}

	ctx := c.UserContext()
	act := inbound.ToDialogActivity()
	responder := h.connector.Responder(inbound.ServiceURL, inbound.Conversation.ID)

	switch inbound.Type {
	case "message", "event", "invoke":
	default:
		// Membership changes, typing indicators and the like are ignored.
		return c.SendStatus(http.StatusOK)
	}

	// A suspended dialog always gets the activity first; sign-in
	// callbacks and form submissions only make sense as continuations.
	handled, err := h.engine.Continue(ctx, act, responder)
	if err != nil {
		h.logger.Error("dialog continuation failed",
			zap.String("conversation_id", act.ConversationID),
			zap.Error(err))
		return c.SendStatus(http.StatusInternalServerError)
	}
	if handled {
		return c.SendStatus(http.StatusOK)
	}

	if inbound.IsSignInCallback() {
		// Sign-in result with no suspended dialog: nothing to resume.
		h.logger.Warn("orphaned sign-in callback",
			zap.String("conversation_id", act.ConversationID))
		return c.SendStatus(http.StatusOK)
	}

	action := CommandAction(act.Text)
	var feedback *dialog.FeedbackContext
	if action == dialog.ActionNone && inbound.Value != nil {
		action, feedback = SubmitAction(inbound.Value)
	}

	if err := h.engine.Begin(ctx, act, action, feedback, responder); err != nil {
		h.logger.Error("dialog begin failed",
			zap.String("conversation_id", act.ConversationID),
			zap.String("action", string(action)),
			zap.Error(err))
		return c.SendStatus(http.StatusInternalServerError)
	}
	return c.SendStatus(http.StatusOK)
}
