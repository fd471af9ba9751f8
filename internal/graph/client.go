package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

// Profile is the subset of the Graph user resource the bot renders.
type Profile struct {
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail"`
	JobTitle          string `json:"jobTitle"`
}

// MailMessage is a flattened inbox entry.
type MailMessage struct {
	Subject  string
	From     string
	Received time.Time
	IsRead   bool
}

// Client exposes the Graph capabilities used by the dialog engine.
type Client interface {
	Me(ctx context.Context, token string) (*Profile, error)
	RecentMail(ctx context.Context, token string, top int) ([]MailMessage, error)
	SendMail(ctx context.Context, token, to, subject, body string) error
}

// HTTPClient talks to the Microsoft Graph REST endpoint.
type HTTPClient struct {
	rest *resty.Client
}

// NewHTTPClient builds a Graph client rooted at baseURL, normally
// https://graph.microsoft.com/v1.0.
func NewHTTPClient(baseURL string) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return &HTTPClient{rest: client}
}

func (c *HTTPClient) Me(ctx context.Context, token string) (*Profile, error) {
	var profile Profile
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&profile).
		Get("/me")
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(fmt.Errorf("graph request: %w", err))
	}
	if err := graphStatusError(resp); err != nil {
		return nil, err
	}
	return &profile, nil
}

type mailEnvelope struct {
	Value []struct {
		Subject          string    `json:"subject"`
		ReceivedDateTime time.Time `json:"receivedDateTime"`
		IsRead           bool      `json:"isRead"`
		From             struct {
			EmailAddress struct {
				Name    string `json:"name"`
				Address string `json:"address"`
			} `json:"emailAddress"`
		} `json:"from"`
	} `json:"value"`
}

func (c *HTTPClient) RecentMail(ctx context.Context, token string, top int) ([]MailMessage, error) {
	if top <= 0 {
		top = 5
	}
	var envelope mailEnvelope
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("$top", fmt.Sprintf("%d", top)).
		SetQueryParam("$orderby", "receivedDateTime desc").
		SetResult(&envelope).
		Get("/me/messages")
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(fmt.Errorf("graph request: %w", err))
	}
	if err := graphStatusError(resp); err != nil {
		return nil, err
	}

	messages := make([]MailMessage, 0, len(envelope.Value))
	for _, entry := range envelope.Value {
		from := entry.From.EmailAddress.Name
		if from == "" {
			from = entry.From.EmailAddress.Address
		}
		messages = append(messages, MailMessage{
			Subject:  entry.Subject,
			From:     from,
			Received: entry.ReceivedDateTime,
			IsRead:   entry.IsRead,
		})
	}
	return messages, nil
}

func (c *HTTPClient) SendMail(ctx context.Context, token, to, subject, body string) error {
	payload := map[string]any{
		"message": map[string]any{
			"subject": subject,
			"body": map[string]any{
				"contentType": "Text",
				"content":     body,
			},
			"toRecipients": []map[string]any{
				{"emailAddress": map[string]string{"address": to}},
			},
		},
		"saveToSentItems": true,
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(payload).
		Post("/me/sendMail")
	if err != nil {
		return apperrors.NewStorageUnavailable(fmt.Errorf("graph request: %w", err))
	}
	return graphStatusError(resp)
}

// graphStatusError maps a non-2xx Graph response onto the shared error
// taxonomy so callers can treat all capabilities uniformly.
func graphStatusError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	switch resp.StatusCode() {
	case 401, 403:
		return apperrors.NewAuthenticationFailed("graph rejected the access token")
	case 404:
		return apperrors.NewNotFound("graph resource", nil)
	default:
		return apperrors.NewStorageUnavailable(
			fmt.Errorf("graph returned status %d", resp.StatusCode()))
	}
}
