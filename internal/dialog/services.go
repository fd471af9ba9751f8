package dialog

import (
	"context"

	"github.com/spec-kit/teams-support-bot/internal/api/dto"
	"github.com/spec-kit/teams-support-bot/internal/domain"
	"github.com/spec-kit/teams-support-bot/internal/graph"
)

// TicketService is the ticket API as seen from the dialog engine.
type TicketService interface {
	Create(ctx context.Context, token, title, description string, session *domain.SessionInfo) (*dto.TicketResponse, error)
	List(ctx context.Context, token string, top int) ([]dto.TicketResponse, error)
}

// FeedbackService accepts feedback submissions.
type FeedbackService interface {
	Submit(ctx context.Context, request dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error)
}

// GraphService is the Microsoft Graph capability the engine delegates to.
type GraphService = graph.Client
