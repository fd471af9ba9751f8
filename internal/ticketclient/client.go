// Package ticketclient is the bot-side client for the ticket and
// feedback REST API.
package ticketclient

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/teams-support-bot/internal/api/dto"
	"github.com/spec-kit/teams-support-bot/internal/domain"
	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

// Client calls the ticket service over HTTP. Ticket operations carry the
// user's bearer token; feedback submission does not.
type Client struct {
	rest *resty.Client
}

// New builds a client rooted at baseURL. No per-request timeout is set
// here; callers bound operations through the context.
func New(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	return &Client{rest: client}
}

type ticketEnvelope struct {
	Data dto.TicketResponse `json:"data"`
}

type ticketListEnvelope struct {
	Data []dto.TicketResponse `json:"data"`
}

type feedbackEnvelope struct {
	Data dto.FeedbackResponse `json:"data"`
}

// Create opens a new ticket on behalf of the token's subject.
func (c *Client) Create(ctx context.Context, token, title, description string, session *domain.SessionInfo) (*dto.TicketResponse, error) {
	var envelope ticketEnvelope
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(dto.CreateTicketRequest{
			Title:       title,
			Description: description,
			Session:     session,
		}).
		SetResult(&envelope).
		Post("/api/tickets")
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// List returns the token subject's most recently updated tickets.
func (c *Client) List(ctx context.Context, token string, top int) ([]dto.TicketResponse, error) {
	var envelope ticketListEnvelope
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("top", fmt.Sprintf("%d", top)).
		SetResult(&envelope).
		Get("/api/tickets")
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// Submit records a feedback entry.
func (c *Client) Submit(ctx context.Context, request dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error) {
	var envelope feedbackEnvelope
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&envelope).
		Post("/api/feedback")
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// transportError keeps deadline expiry distinguishable from an
// unreachable service.
func transportError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return apperrors.NewTimeout("ticket service request timed out", err)
	}
	return apperrors.NewStorageUnavailable(fmt.Errorf("ticket service request: %w", err))
}

// statusError maps a non-2xx response onto the shared error taxonomy.
func statusError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	switch resp.StatusCode() {
	case 400:
		return apperrors.NewValidationError("ticket service rejected the request", nil)
	case 401, 403:
		return apperrors.NewAuthenticationFailed("ticket service rejected the access token")
	case 404:
		return apperrors.NewNotFound("ticket", nil)
	case 409:
		return apperrors.NewConflict("ticket was modified concurrently", nil)
	case 504:
		return apperrors.NewTimeout("ticket service timed out", nil)
	default:
		return apperrors.NewStorageUnavailable(
			fmt.Errorf("ticket service returned status %d", resp.StatusCode()))
	}
}
