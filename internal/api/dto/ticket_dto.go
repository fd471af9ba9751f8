package dto

import (
	"time"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

// CreateTicketRequest payload. Caller identity comes from the verified
// bearer token, not from the body.
type CreateTicketRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Session     *domain.SessionInfo `json:"session,omitempty"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         domain.TicketStatus `json:"status"`
	DisplayName    string              `json:"displayName"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	ETag           string              `json:"etag"`
	ConversationID string              `json:"conversationId,omitempty"`
	MessageCount   int                 `json:"messageCount,omitempty"`
}

// FromTicket maps a domain ticket onto the response shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		DisplayName:    t.DisplayName,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ETag:           t.ETag(),
		ConversationID: t.ConversationID,
		MessageCount:   len(t.Messages),
	}
}
