package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

func newTestTicketStore(t *testing.T) *FileTicketStore {
	t.Helper()
	store, err := NewFileTicketStore(filepath.Join(t.TempDir(), "tickets.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileTicketStore: %v", err)
	}
	return store
}

func mustCreate(t *testing.T, store *FileTicketStore, userID, title string) *domain.Ticket {
	t.Helper()
	ticket, err := store.Create(context.Background(), CreateTicketInput{
		UserID:      userID,
		DisplayName: "Ada",
		Title:       title,
		Description: "Something is broken and needs fixing.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func TestFileTicketStoreCreateAndGet(t *testing.T) {
	store := newTestTicketStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, CreateTicketInput{
		UserID:      "user-1",
		DisplayName: "Ada",
		Title:       "  Printer broken  ",
		Description: "  The office printer rejects every job.  ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Title != "Printer broken" {
		t.Errorf("title not trimmed: %q", created.Title)
	}
	if created.Status != domain.TicketStatusNew {
		t.Errorf("status = %q", created.Status)
	}
	if created.Version != 0 || created.ETag() != "0" {
		t.Errorf("fresh ticket version = %d etag = %q", created.Version, created.ETag())
	}

	got, err := store.Get(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != created.ID || got.Description != "The office printer rejects every job." {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestFileTicketStoreCrossUserIsolation(t *testing.T) {
	store := newTestTicketStore(t)
	ctx := context.Background()
	ticket := mustCreate(t, store, "user-1", "Printer broken")

	if _, err := store.Get(ctx, "user-2", ticket.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user's Get should be ErrNotFound, got %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "user-2", ticket.ID, domain.TicketStatusClosed, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user's UpdateStatus should be ErrNotFound, got %v", err)
	}
	deleted, err := store.SoftDelete(ctx, "user-2", ticket.ID, "")
	if err != nil || deleted {
		t.Fatalf("other user's SoftDelete = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestFileTicketStoreListOrdering(t *testing.T) {
	store := newTestTicketStore(t)
	ctx := context.Background()

	first := mustCreate(t, store, "user-1", "First issue")
	second := mustCreate(t, store, "user-1", "Second issue")
	mustCreate(t, store, "user-2", "Someone else's issue")

	// Touch the older ticket so it becomes the most recently updated.
	time.Sleep(5 * time.Millisecond)
	if _, err := store.UpdateStatus(ctx, "user-1", first.ID, domain.TicketStatusInProgress, ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	list, err := store.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("expected most recently updated first, got %s then %s", list[0].ID, list[1].ID)
	}
}

func TestFileTicketStoreListTopLimit(t *testing.T) {
	store := newTestTicketStore(t)
	for i := 0; i < 5; i++ {
		mustCreate(t, store, "user-1", "Recurring issue")
	}
	list, err := store.ListByUser(context.Background(), "user-1", 3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(list))
	}
}

func TestFileTicketStoreUpdateStatusEtag(t *testing.T) {
	store := newTestTicketStore(t)
	ctx := context.Background()
	ticket := mustCreate(t, store, "user-1", "Printer broken")

	// Matching etag succeeds and bumps the version.
	updated, err := store.UpdateStatus(ctx, "user-1", ticket.ID, domain.TicketStatusInProgress, ticket.ETag())
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Version != ticket.Version+1 {
		t.Errorf("version = %d, want %d", updated.Version, ticket.Version+1)
	}

	// The original etag is now stale; the record must be left unchanged.
	if _, err := store.UpdateStatus(ctx, "user-1", ticket.ID, domain.TicketStatusClosed, ticket.ETag()); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale etag should be ErrConflict, got %v", err)
	}
	current, err := store.Get(ctx, "user-1", ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.Status != domain.TicketStatusInProgress {
		t.Errorf("conflicting update must not change the record, status = %q", current.Status)
	}

	// Empty etag updates unconditionally.
	if _, err := store.UpdateStatus(ctx, "user-1", ticket.ID, domain.TicketStatusResolved, ""); err != nil {
		t.Fatalf("unconditional UpdateStatus: %v", err)
	}
}

func TestFileTicketStoreSoftDelete(t *testing.T) {
	store := newTestTicketStore(t)
	ctx := context.Background()
	ticket := mustCreate(t, store, "user-1", "Printer broken")

	deleted, err := store.SoftDelete(ctx, "user-1", ticket.ID, "")
	if err != nil || !deleted {
		t.Fatalf("SoftDelete = (%v, %v), want (true, nil)", deleted, err)
	}

	// Invisible to reads and listings.
	if _, err := store.Get(ctx, "user-1", ticket.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted ticket should be ErrNotFound, got %v", err)
	}
	list, err := store.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("deleted ticket still listed: %d", len(list))
	}

	// Deleting again is a successful no-op.
	deleted, err = store.SoftDelete(ctx, "user-1", ticket.ID, "")
	if err != nil || !deleted {
		t.Fatalf("repeat SoftDelete = (%v, %v), want (true, nil)", deleted, err)
	}

	// A ticket that never existed reports false without error.
	deleted, err = store.SoftDelete(ctx, "user-1", "no-such-id", "")
	if err != nil || deleted {
		t.Fatalf("missing SoftDelete = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestFileTicketStoreSoftDeleteEtagConflict(t *testing.T) {
	store := newTestTicketStore(t)
	ctx := context.Background()
	ticket := mustCreate(t, store, "user-1", "Printer broken")

	if _, err := store.SoftDelete(ctx, "user-1", ticket.ID, "999"); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale etag should be ErrConflict, got %v", err)
	}
	if _, err := store.Get(ctx, "user-1", ticket.ID); err != nil {
		t.Fatalf("conflicting delete must leave the ticket intact: %v", err)
	}
}

func TestFileTicketStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tickets.json")
	ctx := context.Background()

	store, err := NewFileTicketStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileTicketStore: %v", err)
	}
	ticket := mustCreate(t, store, "user-1", "Printer broken")

	reopened, err := NewFileTicketStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "user-1", ticket.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Title != "Printer broken" {
		t.Errorf("title = %q", got.Title)
	}
}
