package domain

import (
	"fmt"
	"strconv"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. Transitions are
// deliberately unconstrained: any status may move to any other via an
// explicit update.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// ParseTicketStatus validates a status string.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch TicketStatus(raw) {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return TicketStatus(raw), nil
	}
	return "", fmt.Errorf("invalid ticket status %q", raw)
}

// Ticket is the aggregate for support requests. Tickets are partitioned by
// UserID: every read and write is keyed by (UserID, ID), never by ID alone.
type Ticket struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	DisplayName string       `json:"displayName"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	// Soft-deleted tickets stay in storage but are invisible to reads.
	Deleted bool `json:"deleted"`

	// Version advances on every mutation and backs the opaque etag.
	Version int `json:"version"`

	// Session context captured at creation, if the bot supplied it.
	ConversationID string           `json:"conversationId,omitempty"`
	SessionID      string           `json:"sessionId,omitempty"`
	TenantID       string           `json:"tenantId,omitempty"`
	ChannelID      string           `json:"channelId,omitempty"`
	Locale         string           `json:"locale,omitempty"`
	Messages       []SessionMessage `json:"messages,omitempty"`
}

// ETag renders the concurrency token callers pass back via If-Match.
// The value is opaque to clients; only equality matters.
func (t *Ticket) ETag() string {
	return strconv.Itoa(t.Version)
}

// ApplySession copies session context onto a ticket being created.
func (t *Ticket) ApplySession(session *SessionInfo) {
	if session == nil {
		return
	}
	t.ConversationID = session.ConversationID
	t.SessionID = session.SessionID
	t.TenantID = session.TenantID
	t.ChannelID = session.ChannelID
	t.Locale = session.Locale
	t.Messages = session.Messages
}
