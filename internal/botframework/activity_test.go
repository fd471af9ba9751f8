package botframework

import (
	"encoding/json"
	"testing"

	"github.com/spec-kit/teams-support-bot/internal/dialog"
)

func TestCommandAction(t *testing.T) {
	cases := []struct {
		text string
		want dialog.Action
	}{
		{"profile", dialog.ActionProfile},
		{"  Profile  ", dialog.ActionProfile},
		{"who am i", dialog.ActionProfile},
		{"recent mail", dialog.ActionRecentMail},
		{"inbox", dialog.ActionRecentMail},
		{"send test mail", dialog.ActionSendTestMail},
		{"create ticket", dialog.ActionCreateTicket},
		{"NEW TICKET", dialog.ActionCreateTicket},
		{"my tickets", dialog.ActionListTickets},
		{"feedback", dialog.ActionShowFeedbackForm},
		{"", dialog.ActionNone},
		{"make me a sandwich", dialog.ActionNone},
	}
	for _, tc := range cases {
		if got := CommandAction(tc.text); got != tc.want {
			t.Errorf("CommandAction(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestSubmitAction(t *testing.T) {
	action, feedback := SubmitAction(map[string]any{
		"action":      "submitFeedback",
		"activityId":  "act-42",
		"botResponse": "Here is your answer.",
		"category":    "AI Response",
		"reaction":    "like",
	})
	if action != dialog.ActionSubmitFeedback {
		t.Fatalf("action = %q", action)
	}
	if feedback == nil || feedback.ActivityID != "act-42" || feedback.Reaction != "like" {
		t.Fatalf("feedback = %+v", feedback)
	}

	action, feedback = SubmitAction(map[string]any{"action": "showFeedbackForm", "activityId": "act-1"})
	if action != dialog.ActionShowFeedbackForm || feedback == nil {
		t.Fatalf("action = %q feedback = %+v", action, feedback)
	}

	if action, _ := SubmitAction(map[string]any{"action": "launchMissiles"}); action != dialog.ActionNone {
		t.Errorf("unknown submit action = %q", action)
	}
	if action, _ := SubmitAction(nil); action != dialog.ActionNone {
		t.Errorf("nil value action = %q", action)
	}
}

func TestToDialogActivity(t *testing.T) {
	raw := `{
		"type": "message",
		"id": "act-1",
		"text": "  create ticket  ",
		"serviceUrl": "https://smba.example.com/emea/",
		"channelId": "msteams",
		"locale": "en-US",
		"from": {"id": "user-1", "name": "Ada"},
		"conversation": {"id": "conv-1", "tenantId": "tenant-1"}
	}`
	var inbound InboundActivity
	if err := json.Unmarshal([]byte(raw), &inbound); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	act := inbound.ToDialogActivity()
	if act.ConversationID != "conv-1" || act.UserID != "user-1" || act.UserName != "Ada" {
		t.Errorf("identity fields: %+v", act)
	}
	if act.Text != "create ticket" {
		t.Errorf("text not trimmed: %q", act.Text)
	}
	if act.TenantID != "tenant-1" || act.ChannelID != "msteams" || act.Locale != "en-US" {
		t.Errorf("channel fields: %+v", act)
	}
	if act.Token != "" {
		t.Errorf("unexpected token %q", act.Token)
	}
}

func TestSignInCallbackCarriesToken(t *testing.T) {
	raw := `{
		"type": "event",
		"name": "tokens/response",
		"value": {"token": "fresh-token", "connectionName": "GraphConn"},
		"from": {"id": "user-1"},
		"conversation": {"id": "conv-1"}
	}`
	var inbound InboundActivity
	if err := json.Unmarshal([]byte(raw), &inbound); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !inbound.IsSignInCallback() {
		t.Fatal("expected sign-in callback")
	}
	if got := inbound.ToDialogActivity().Token; got != "fresh-token" {
		t.Errorf("token = %q", got)
	}
}

func TestSignInCallbackDetection(t *testing.T) {
	cases := []struct {
		activityType string
		name         string
		want         bool
	}{
		{"event", "tokens/response", true},
		{"invoke", "signin/verifyState", true},
		{"invoke", "signin/tokenExchange", true},
		{"message", "", false},
		{"event", "channelCreated", false},
	}
	for _, tc := range cases {
		inbound := InboundActivity{Type: tc.activityType, Name: tc.name}
		if got := inbound.IsSignInCallback(); got != tc.want {
			t.Errorf("IsSignInCallback(%s/%s) = %v, want %v", tc.activityType, tc.name, got, tc.want)
		}
	}
}
