package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/teams-support-bot/internal/auth"
	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

// AuthHandler issues bearer tokens. Registered only in development; in
// other environments callers bring tokens minted by the identity provider.
type AuthHandler struct {
	tokens *auth.TokenManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

type issueTokenRequest struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// IssueDevToken POST /api/auth/dev-token.
func (h *AuthHandler) IssueDevToken(c *fiber.Ctx) error {
	var req issueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return apperrors.NewValidationError("userId is required", map[string]any{"userId": "required"})
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.UserID, req.DisplayName)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"token":     token,
		"expiresAt": expiresAt,
	}})
}
