package dialog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/api/dto"
)

// beginFeedback presents the feedback form and suspends until it comes
// back. A direct submission, where the activity already carries the form
// payload, skips the form and records immediately.
func (e *Engine) beginFeedback(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	if snapshot.Action == ActionSubmitFeedback && parseFeedbackSubmission(act.Value) != nil {
		return e.continueFeedbackForm(ctx, snapshot, act, r)
	}

	feedback := snapshot.Feedback
	if feedback == nil {
		feedback = &FeedbackContext{}
		snapshot.Feedback = feedback
	}
	if err := r.SendFeedbackForm(ctx, *feedback); err != nil {
		return err
	}
	snapshot.State = StateFeedbackForm
	return e.suspend(ctx, act.ConversationID, snapshot)
}

// continueFeedbackForm processes the submitted form value and records the
// feedback. Any non-submit activity simply ends the dialog.
func (e *Engine) continueFeedbackForm(ctx context.Context, snapshot *Snapshot, act Activity, r Responder) error {
	submission := parseFeedbackSubmission(act.Value)
	if submission == nil {
		e.end(ctx, act.ConversationID)
		return nil
	}

	request := dto.CreateFeedbackRequest{
		UserID:         snapshot.UserID,
		UserName:       snapshot.UserName,
		ConversationID: act.ConversationID,
		ActivityID:     submission.ActivityID,
		BotResponse:    submission.BotResponse,
		Reaction:       submission.Reaction,
		Comment:        submission.Comment,
		Category:       submission.Category,
	}
	if request.ActivityID == "" && snapshot.Feedback != nil {
		request.ActivityID = snapshot.Feedback.ActivityID
	}
	if request.BotResponse == "" && snapshot.Feedback != nil {
		request.BotResponse = snapshot.Feedback.BotResponse
	}
	if request.Category == "" && snapshot.Feedback != nil {
		request.Category = snapshot.Feedback.Category
	}
	if request.Category == "" {
		request.Category = "General"
	}

	result, err := e.feedback.Submit(ctx, request)
	if err != nil {
		e.logger.Error("feedback submission failed",
			zap.String("user_id", snapshot.UserID),
			zap.String("reaction", submission.Reaction),
			zap.Error(err))
		if sendErr := r.SendText(ctx, "Sorry, there was an error submitting your feedback."); sendErr != nil {
			return sendErr
		}
		e.end(ctx, act.ConversationID)
		return nil
	}

	e.logger.Info("feedback submitted",
		zap.String("feedback_id", result.ID),
		zap.String("user_id", snapshot.UserID))
	if err := r.SendText(ctx, "Thank you for your feedback! Your input helps us improve."); err != nil {
		return err
	}
	e.end(ctx, act.ConversationID)
	return nil
}

type feedbackSubmission struct {
	ActivityID  string
	BotResponse string
	Reaction    string
	Comment     string
	Category    string
}

// parseFeedbackSubmission extracts the form payload; nil when the activity
// is not a feedback submit.
func parseFeedbackSubmission(value map[string]any) *feedbackSubmission {
	if value == nil {
		return nil
	}
	if action, _ := value["action"].(string); action != "submitFeedback" {
		return nil
	}
	return &feedbackSubmission{
		ActivityID:  stringValue(value, "activityId"),
		BotResponse: stringValue(value, "botResponse"),
		Reaction:    stringValue(value, "reaction"),
		Comment:     stringValue(value, "comment"),
		Category:    stringValue(value, "category"),
	}
}

func stringValue(value map[string]any, key string) string {
	switch raw := value[key].(type) {
	case string:
		return raw
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", raw)
	}
}
