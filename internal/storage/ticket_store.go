package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

var (
	// ErrNotFound is returned when a record is absent or soft-deleted.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a supplied concurrency token no longer
	// matches the stored version. The record is left unchanged.
	ErrConflict = errors.New("concurrency token mismatch")
)

// CreateTicketInput is the payload for TicketStore.Create.
type CreateTicketInput struct {
	UserID      string
	DisplayName string
	Title       string
	Description string
	Session     *domain.SessionInfo
}

// Normalize trims user-entered fields in place.
func (in *CreateTicketInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
}

// TicketStore is the pluggable persistence contract for tickets. Both
// backends implement it identically.
//
// Every operation is keyed by (userID, id); cross-user access is
// structurally impossible. Etag parameters are optional: an empty etag
// means "update unconditionally" (last writer wins), a deliberate
// consistency weakening for simple clients. A non-empty stale etag yields
// ErrConflict, distinct from ErrNotFound.
type TicketStore interface {
	Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error)
	Get(ctx context.Context, userID, id string) (*domain.Ticket, error)

	// ListByUser returns non-deleted tickets ordered most-recently-updated
	// first. top is passed through; the API boundary clamps it to [1,100].
	ListByUser(ctx context.Context, userID string, top int) ([]domain.Ticket, error)

	UpdateStatus(ctx context.Context, userID, id string, status domain.TicketStatus, etag string) (*domain.Ticket, error)

	// SoftDelete reports false only when the ticket never existed for the
	// user; deleting an already-deleted ticket is a successful no-op.
	SoftDelete(ctx context.Context, userID, id string, etag string) (bool, error)
}
