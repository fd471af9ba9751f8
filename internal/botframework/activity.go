package botframework

import (
	"strings"

	"github.com/spec-kit/teams-support-bot/internal/dialog"
)

// InboundActivity is the wire shape of a channel activity as delivered
// to the messaging endpoint. Only the fields the bot reads are modeled.
type InboundActivity struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	ServiceURL string         `json:"serviceUrl"`
	ChannelID  string         `json:"channelId"`
	Locale     string         `json:"locale"`
	Name       string         `json:"name"`
	Value      map[string]any `json:"value"`
	From       struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"from"`
	Conversation struct {
		ID       string `json:"id"`
		TenantID string `json:"tenantId"`
	} `json:"conversation"`
}

// ToDialogActivity flattens the channel payload for the dialog engine.
func (a *InboundActivity) ToDialogActivity() dialog.Activity {
	return dialog.Activity{
		ConversationID: a.Conversation.ID,
		ActivityID:     a.ID,
		UserID:         a.From.ID,
		UserName:       a.From.Name,
		Text:           strings.TrimSpace(a.Text),
		Value:          a.Value,
		Token:          a.tokenFromValue(),
		TenantID:       a.Conversation.TenantID,
		ChannelID:      a.ChannelID,
		Locale:         a.Locale,
	}
}

// tokenFromValue digs the OAuth result out of a sign-in callback. Both
// the tokens/response event and the magic-code verify deliver it inside
// the activity value.
func (a *InboundActivity) tokenFromValue() string {
	if a.Value == nil {
		return ""
	}
	if token, ok := a.Value["token"].(string); ok {
		return token
	}
	return ""
}

// IsSignInCallback reports whether this activity carries a sign-in
// result rather than user input.
func (a *InboundActivity) IsSignInCallback() bool {
	if a.Type == "event" && a.Name == "tokens/response" {
		return true
	}
	if a.Type == "invoke" && (a.Name == "signin/verifyState" || a.Name == "signin/tokenExchange") {
		return true
	}
	return false
}

// CommandAction maps free-text input to a dialog action. Unrecognized
// input maps to ActionNone; card submissions are resolved separately.
func CommandAction(text string) dialog.Action {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "profile", "me", "who am i":
		return dialog.ActionProfile
	case "mail", "recent mail", "inbox":
		return dialog.ActionRecentMail
	case "send test mail", "test mail":
		return dialog.ActionSendTestMail
	case "create ticket", "new ticket", "ticket":
		return dialog.ActionCreateTicket
	case "list tickets", "my tickets", "tickets":
		return dialog.ActionListTickets
	case "feedback":
		return dialog.ActionShowFeedbackForm
	default:
		return dialog.ActionNone
	}
}

// SubmitAction resolves a card submit payload to a dialog action, along
// with the feedback context it carries.
func SubmitAction(value map[string]any) (dialog.Action, *dialog.FeedbackContext) {
	if value == nil {
		return dialog.ActionNone, nil
	}
	action, _ := value["action"].(string)
	switch action {
	case "submitFeedback", "showFeedbackForm":
		feedback := &dialog.FeedbackContext{}
		if v, ok := value["activityId"].(string); ok {
			feedback.ActivityID = v
		}
		if v, ok := value["botResponse"].(string); ok {
			feedback.BotResponse = v
		}
		if v, ok := value["category"].(string); ok {
			feedback.Category = v
		}
		if v, ok := value["reaction"].(string); ok {
			feedback.Reaction = v
		}
		if action == "submitFeedback" {
			return dialog.ActionSubmitFeedback, feedback
		}
		return dialog.ActionShowFeedbackForm, feedback
	default:
		return dialog.ActionNone, nil
	}
}
