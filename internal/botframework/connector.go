package botframework

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/teams-support-bot/internal/dialog"
	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

// Connector posts outbound activities back to the channel's service URL.
type Connector struct {
	credentials *AppCredentials
	rest        *resty.Client
}

// NewConnector builds the outbound connector.
func NewConnector(credentials *AppCredentials) *Connector {
	return &Connector{
		credentials: credentials,
		rest:        resty.New().SetTimeout(15 * time.Second),
	}
}

// Responder scopes the connector to one conversation. serviceURL comes
// from the inbound activity and differs per channel region.
func (c *Connector) Responder(serviceURL, conversationID string) *ConversationResponder {
	return &ConversationResponder{
		connector:      c,
		serviceURL:     serviceURL,
		conversationID: conversationID,
	}
}

// ConversationResponder implements dialog.Responder for one conversation.
type ConversationResponder struct {
	connector      *Connector
	serviceURL     string
	conversationID string
}

func (r *ConversationResponder) SendText(ctx context.Context, text string) error {
	return r.post(ctx, map[string]any{
		"type": "message",
		"text": text,
	})
}

// RequestSignIn sends an OAuth card for the given connection. The channel
// renders the sign-in button and later delivers the token, or an empty
// value on cancel, in a follow-up activity.
func (r *ConversationResponder) RequestSignIn(ctx context.Context, connectionName string) error {
	return r.post(ctx, map[string]any{
		"type": "message",
		"attachments": []map[string]any{
			{
				"contentType": "application/vnd.microsoft.card.oauth",
				"content": map[string]any{
					"text":           "Please sign in to continue.",
					"connectionName": connectionName,
					"buttons": []map[string]any{
						{"type": "signin", "title": "Sign In"},
					},
				},
			},
		},
	})
}

// SendFeedbackForm sends the adaptive feedback card. The hidden fields
// carry the activity being rated so the submission can reference it.
func (r *ConversationResponder) SendFeedbackForm(ctx context.Context, feedback dialog.FeedbackContext) error {
	card := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.4",
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"body": []map[string]any{
			{"type": "TextBlock", "text": "How was this response?", "weight": "Bolder"},
			{
				"type": "Input.ChoiceSet",
				"id":   "reaction",
				"choices": []map[string]string{
					{"title": "Helpful", "value": "like"},
					{"title": "Not helpful", "value": "dislike"},
				},
				"value": feedback.Reaction,
			},
			{
				"type":        "Input.Text",
				"id":          "comment",
				"isMultiline": true,
				"maxLength":   1000,
				"placeholder": "Optional comment",
			},
		},
		"actions": []map[string]any{
			{
				"type":  "Action.Submit",
				"title": "Submit",
				"data": map[string]string{
					"action":      "submitFeedback",
					"activityId":  feedback.ActivityID,
					"botResponse": feedback.BotResponse,
					"category":    feedback.Category,
				},
			},
		},
	}
	return r.post(ctx, map[string]any{
		"type": "message",
		"attachments": []map[string]any{
			{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content":     card,
			},
		},
	})
}

func (r *ConversationResponder) post(ctx context.Context, activity map[string]any) error {
	token, err := r.connector.credentials.Token(ctx)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v3/conversations/%s/activities", r.serviceURL, r.conversationID)
	request := r.connector.rest.R().
		SetContext(ctx).
		SetBody(activity)
	if token != "" {
		request.SetAuthToken(token)
	}
	resp, err := request.Post(url)
	if err != nil {
		return apperrors.NewStorageUnavailable(fmt.Errorf("send activity: %w", err))
	}
	if !resp.IsSuccess() {
		return apperrors.NewStorageUnavailable(
			fmt.Errorf("send activity returned status %d", resp.StatusCode()))
	}
	return nil
}
