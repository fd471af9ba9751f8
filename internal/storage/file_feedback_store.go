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

type feedbackFileModel struct {
	Feedback []domain.Feedback `json:"feedback"`
}

// FileFeedbackStore is the zero-dependency FeedbackStore backend, sharing
// the file-document layout of FileTicketStore.
type FileFeedbackStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileFeedbackStore creates the backing file (and parent directory) if missing.
func NewFileFeedbackStore(path string, logger *zap.Logger) (*FileFeedbackStore, error) {
	s := &FileFeedbackStore{path: path, logger: logger}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(&feedbackFileModel{Feedback: []domain.Feedback{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return s, nil
}

func (s *FileFeedbackStore) read() (*feedbackFileModel, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return &feedbackFileModel{}, nil
	}
	var model feedbackFileModel
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return &model, nil
}

func (s *FileFeedbackStore) write(model *feedbackFileModel) error {
	raw, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Create validates and appends an immutable feedback record.
func (s *FileFeedbackStore) Create(ctx context.Context, input CreateFeedbackInput) (*domain.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	source := input.Source
	if source == "" {
		source = "TeamsBot"
	}
	record := domain.Feedback{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		UserName:       input.UserName,
		ConversationID: input.ConversationID,
		ActivityID:     input.ActivityID,
		BotResponse:    input.BotResponse,
		Reaction:       domain.FeedbackReaction(input.Reaction),
		Comment:        input.Comment,
		Category:       input.Category,
		CreatedAt:      time.Now().UTC(),
		Source:         source,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := s.read()
	if err != nil {
		return nil, err
	}
	model.Feedback = append(model.Feedback, record)
	if err := s.write(model); err != nil {
		return nil, err
	}

	s.logger.Info("created feedback",
		zap.String("feedback_id", record.ID),
		zap.String("user_id", record.UserID),
		zap.String("reaction", string(record.Reaction)))
	return &record, nil
}

// List applies optional user/conversation filters, newest first.
func (s *FileFeedbackStore) List(ctx context.Context, userID, conversationID string) ([]domain.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := s.read()
	if err != nil {
		return nil, err
	}
	result := make([]domain.Feedback, 0)
	for _, f := range model.Feedback {
		if userID != "" && f.UserID != userID {
			continue
		}
		if conversationID != "" && f.ConversationID != conversationID {
			continue
		}
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// GetByID looks a record up by its id.
func (s *FileFeedbackStore) GetByID(ctx context.Context, id string) (*domain.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	model, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range model.Feedback {
		if model.Feedback[i].ID == id {
			out := model.Feedback[i]
			return &out, nil
		}
	}
	return nil, ErrNotFound
}
