package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/api/dto"
	"github.com/spec-kit/teams-support-bot/internal/auth"
	"github.com/spec-kit/teams-support-bot/internal/domain"
	"github.com/spec-kit/teams-support-bot/internal/storage"
	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

const (
	minTitleLength       = 3
	maxTitleLength       = 140
	minDescriptionLength = 10
	maxDescriptionLength = 4000
)

// TicketsHandler manages ticket endpoints. All routes sit behind the
// bearer middleware; the partition key is always the token subject.
type TicketsHandler struct {
	store  storage.TicketStore
	logger *zap.Logger
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(store storage.TicketStore, logger *zap.Logger) *TicketsHandler {
	return &TicketsHandler{store: store, logger: logger}
}

// Create POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateTicketInput(req.Title, req.Description); err != nil {
		return err
	}

	h.logger.Info("create ticket",
		zap.String("user_id", principal.UserID),
		zap.String("display_name", principal.DisplayName))

	ticket, err := h.store.Create(c.UserContext(), storage.CreateTicketInput{
		UserID:      principal.UserID,
		DisplayName: principal.DisplayName,
		Title:       req.Title,
		Description: req.Description,
		Session:     req.Session,
	})
	if err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	c.Set("ETag", ticket.ETag())
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.store.Get(c.UserContext(), principal.UserID, c.Params("id"))
	if err != nil {
		return mapTicketError(err)
	}
	c.Set("ETag", ticket.ETag())
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// List GET /api/tickets?top=N.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	top := clampTop(c.Query("top"), 10)
	tickets, err := h.store.ListByUser(c.UserContext(), principal.UserID, top)
	if err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateTicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := domain.ParseTicketStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"status": req.Status})
	}

	etag := c.Get("If-Match")
	ticket, err := h.store.UpdateStatus(c.UserContext(), principal.UserID, c.Params("id"), status, etag)
	if err != nil {
		return mapTicketError(err)
	}
	c.Set("ETag", ticket.ETag())
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Delete DELETE /api/tickets/:id (soft delete).
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	etag := c.Get("If-Match")
	ok, err := h.store.SoftDelete(c.UserContext(), principal.UserID, c.Params("id"), etag)
	if err != nil {
		return mapTicketError(err)
	}
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"id": c.Params("id")})
	}
	return c.SendStatus(http.StatusNoContent)
}

func validateTicketInput(title, description string) error {
	details := map[string]any{}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if len(title) < minTitleLength || len(title) > maxTitleLength {
		details["title"] = "must be between 3 and 140 characters"
	}
	if len(description) < minDescriptionLength || len(description) > maxDescriptionLength {
		details["description"] = "must be between 10 and 4000 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func mapTicketError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFound("ticket", nil)
	case errors.Is(err, storage.ErrConflict):
		return apperrors.NewConflict("concurrency token does not match current record", nil)
	default:
		return apperrors.NewStorageUnavailable(err)
	}
}

// clampTop bounds the page size to [1,100]; the store never clamps.
func clampTop(raw string, def int) int {
	top := def
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil {
			top = parsed
		}
	}
	if top < 1 {
		top = 1
	}
	if top > 100 {
		top = 100
	}
	return top
}
