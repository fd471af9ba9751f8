package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/domain"
)

// ticketFileModel is the persisted layout: one JSON document holding every
// ticket record, rewritten wholesale under the store lock on each mutation.
// Acceptable at low volume; not designed for high write concurrency.
type ticketFileModel struct {
	Tickets []domain.Ticket `json:"tickets"`
}

// FileTicketStore is the zero-dependency TicketStore backend.
type FileTicketStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileTicketStore creates the backing file (and parent directory) if missing.
func NewFileTicketStore(path string, logger *zap.Logger) (*FileTicketStore, error) {
	s := &FileTicketStore{path: path, logger: logger}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(&ticketFileModel{Tickets: []domain.Ticket{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return s, nil
}

func (s *FileTicketStore) read() (*ticketFileModel, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return &ticketFileModel{}, nil
	}
	var model ticketFileModel
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return &model, nil
}

func (s *FileTicketStore) write(model *ticketFileModel) error {
	raw, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Create appends a fresh ticket and rewrites the document.
func (s *FileTicketStore) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input.Normalize()
	now := time.Now().UTC()
	ticket := domain.Ticket{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		DisplayName: input.DisplayName,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TicketStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ticket.ApplySession(input.Session)

	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := s.read()
	if err != nil {
		return nil, err
	}
	model.Tickets = append(model.Tickets, ticket)
	if err := s.write(model); err != nil {
		return nil, err
	}

	s.logger.Info("created file-backed ticket",
		zap.String("ticket_id", ticket.ID),
		zap.String("user_id", input.UserID),
		zap.Int("session_messages", len(ticket.Messages)))
	return &ticket, nil
}

// Get returns a ticket scoped to its owner; soft-deleted tickets are invisible.
func (s *FileTicketStore) Get(ctx context.Context, userID, id string) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range model.Tickets {
		t := &model.Tickets[i]
		if t.UserID == userID && t.ID == id && !t.Deleted {
			out := *t
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ListByUser returns the user's live tickets, most recently updated first.
func (s *FileTicketStore) ListByUser(ctx context.Context, userID string, top int) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := s.read()
	if err != nil {
		return nil, err
	}
	result := make([]domain.Ticket, 0)
	for _, t := range model.Tickets {
		if t.UserID == userID && !t.Deleted {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if top > 0 && len(result) > top {
		result = result[:top]
	}
	return result, nil
}

// UpdateStatus mutates a live ticket, honoring the optional concurrency token.
func (s *FileTicketStore) UpdateStatus(ctx context.Context, userID, id string, status domain.TicketStatus, etag string) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range model.Tickets {
		t := &model.Tickets[i]
		if t.UserID != userID || t.ID != id || t.Deleted {
			continue
		}
		if etag != "" && etag != t.ETag() {
			return nil, ErrConflict
		}
		t.Status = status
		t.UpdatedAt = time.Now().UTC()
		t.Version++
		if err := s.write(model); err != nil {
			return nil, err
		}
		out := *t
		return &out, nil
	}
	return nil, ErrNotFound
}

// SoftDelete marks a ticket invisible without removing it. Deleting an
// already-deleted ticket is a successful no-op; false means the ticket
// never existed for this user.
func (s *FileTicketStore) SoftDelete(ctx context.Context, userID, id string, etag string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := s.read()
	if err != nil {
		return false, err
	}
	for i := range model.Tickets {
		t := &model.Tickets[i]
		if t.UserID != userID || t.ID != id {
			continue
		}
		if t.Deleted {
			return true, nil
		}
		if etag != "" && etag != t.ETag() {
			return false, ErrConflict
		}
		t.Deleted = true
		t.UpdatedAt = time.Now().UTC()
		t.Version++
		if err := s.write(model); err != nil {
			return false, err
		}
		s.logger.Info("soft deleted ticket", zap.String("ticket_id", id), zap.String("user_id", userID))
		return true, nil
	}
	return false, nil
}
