package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/api/dto"
	"github.com/spec-kit/teams-support-bot/internal/storage"
	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

// FeedbackHandler manages feedback endpoints. These are open (no bearer
// requirement) but the claimed identity is logged on every write.
type FeedbackHandler struct {
	store  storage.FeedbackStore
	logger *zap.Logger
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(store storage.FeedbackStore, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{store: store, logger: logger}
}

// Create POST /api/feedback.
func (h *FeedbackHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	h.logger.Info("create feedback",
		zap.String("claimed_user_id", req.UserID),
		zap.String("claimed_user_name", req.UserName),
		zap.String("conversation_id", req.ConversationID))

	record, err := h.store.Create(c.UserContext(), storage.CreateFeedbackInput{
		UserID:         req.UserID,
		UserName:       req.UserName,
		ConversationID: req.ConversationID,
		ActivityID:     req.ActivityID,
		BotResponse:    req.BotResponse,
		Reaction:       req.Reaction,
		Comment:        req.Comment,
		Category:       req.Category,
		Source:         req.Source,
	})
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return apperrors.NewStorageUnavailable(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromFeedback(record)})
}

// List GET /api/feedback?userId=&conversationId=.
func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	records, err := h.store.List(c.UserContext(), c.Query("userId"), c.Query("conversationId"))
	if err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	items := make([]dto.FeedbackResponse, 0, len(records))
	for i := range records {
		items = append(items, dto.FromFeedback(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetByID GET /api/feedback/:id.
func (h *FeedbackHandler) GetByID(c *fiber.Ctx) error {
	record, err := h.store.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFound("feedback", map[string]any{"id": c.Params("id")})
		}
		return apperrors.NewStorageUnavailable(err)
	}
	return c.JSON(fiber.Map{"data": dto.FromFeedback(record)})
}
