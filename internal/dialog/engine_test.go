package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/teams-support-bot/internal/api/dto"
	"github.com/spec-kit/teams-support-bot/internal/domain"
	"github.com/spec-kit/teams-support-bot/internal/graph"
	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

type fakeTokens struct {
	tokens map[string]string
	err    error
	calls  int
}

func (f *fakeTokens) GetUserToken(_ context.Context, _, connectionName string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.tokens[connectionName], nil
}

type fakeResponder struct {
	texts          []string
	signInRequests []string
	feedbackForms  []FeedbackContext
}

func (f *fakeResponder) SendText(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeResponder) RequestSignIn(_ context.Context, connectionName string) error {
	f.signInRequests = append(f.signInRequests, connectionName)
	return nil
}

func (f *fakeResponder) SendFeedbackForm(_ context.Context, feedback FeedbackContext) error {
	f.feedbackForms = append(f.feedbackForms, feedback)
	return nil
}

func (f *fakeResponder) lastText(t *testing.T) string {
	t.Helper()
	if len(f.texts) == 0 {
		t.Fatal("no text was sent")
	}
	return f.texts[len(f.texts)-1]
}

type fakeGraph struct {
	profile *graph.Profile
	mail    []graph.MailMessage
	err     error
	sent    []string
}

func (f *fakeGraph) Me(_ context.Context, _ string) (*graph.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeGraph) RecentMail(_ context.Context, _ string, _ int) ([]graph.MailMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.mail, nil
}

func (f *fakeGraph) SendMail(_ context.Context, _, to, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeTickets struct {
	created   []dto.CreateTicketRequest
	createErr error
	listErr   error
	listing   []dto.TicketResponse
	lastToken string
}

func (f *fakeTickets) Create(_ context.Context, token, title, description string, _ *domain.SessionInfo) (*dto.TicketResponse, error) {
	f.lastToken = token
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, dto.CreateTicketRequest{Title: title, Description: description})
	return &dto.TicketResponse{ID: "t-1", Title: title, Status: domain.TicketStatusNew}, nil
}

func (f *fakeTickets) List(_ context.Context, token string, _ int) ([]dto.TicketResponse, error) {
	f.lastToken = token
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listing, nil
}

type fakeFeedback struct {
	submitted []dto.CreateFeedbackRequest
	err       error
}

func (f *fakeFeedback) Submit(_ context.Context, request dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = append(f.submitted, request)
	return &dto.FeedbackResponse{ID: "f-1"}, nil
}

type engineFixture struct {
	engine   *Engine
	states   *MemoryStateStore
	tokens   *fakeTokens
	graph    *fakeGraph
	tickets  *fakeTickets
	feedback *fakeFeedback
}

func newFixture() *engineFixture {
	fx := &engineFixture{
		states:   NewMemoryStateStore(),
		tokens:   &fakeTokens{tokens: map[string]string{}},
		graph:    &fakeGraph{profile: &graph.Profile{DisplayName: "Ada", UserPrincipalName: "ada@example.com"}},
		tickets:  &fakeTickets{},
		feedback: &fakeFeedback{},
	}
	fx.engine = NewEngine(Dependencies{
		States:      fx.states,
		Tokens:      fx.tokens,
		Graph:       fx.graph,
		Tickets:     fx.tickets,
		Feedback:    fx.feedback,
		Connections: Connections{Graph: "GraphConn", Tickets: "TicketConn"},
		Logger:      zap.NewNop(),
	})
	return fx
}

func userActivity(text string) Activity {
	return Activity{
		ConversationID: "conv-1",
		ActivityID:     "act-1",
		UserID:         "user-1",
		UserName:       "Ada",
		Text:           text,
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		action Action
		want   ResourceCategory
	}{
		{ActionProfile, CategoryGraph},
		{ActionRecentMail, CategoryGraph},
		{ActionSendTestMail, CategoryGraph},
		{ActionCreateTicket, CategoryTickets},
		{ActionListTickets, CategoryTickets},
		{ActionSubmitFeedback, CategoryTickets},
		{ActionShowFeedbackForm, CategoryTickets},
		{ActionNone, CategoryNone},
		{Action("bogus"), CategoryNone},
	}
	for _, tc := range cases {
		if got := Classify(tc.action); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.action, got, tc.want)
		}
	}
}

func TestSilentTokenHitSkipsSignIn(t *testing.T) {
	fx := newFixture()
	fx.tokens.tokens["GraphConn"] = "cached-token"
	r := &fakeResponder{}

	if err := fx.engine.Begin(context.Background(), userActivity("profile"), ActionProfile, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if len(r.signInRequests) != 0 {
		t.Fatalf("expected no sign-in request, got %d", len(r.signInRequests))
	}
	if !strings.Contains(r.lastText(t), "ada@example.com") {
		t.Fatalf("expected profile output, got %q", r.lastText(t))
	}
	if snap, _ := fx.states.Load(context.Background(), "conv-1"); snap != nil {
		t.Fatal("dialog should have ended after dispatch")
	}
}

func TestSilentTokenMissPromptsSignIn(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}

	if err := fx.engine.Begin(context.Background(), userActivity("profile"), ActionProfile, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if len(r.signInRequests) != 1 || r.signInRequests[0] != "GraphConn" {
		t.Fatalf("expected one sign-in request for GraphConn, got %v", r.signInRequests)
	}
	snap, err := fx.states.Load(context.Background(), "conv-1")
	if err != nil || snap == nil {
		t.Fatalf("expected suspended dialog, got snapshot=%v err=%v", snap, err)
	}
	if snap.State != StateTokenPending || snap.PendingConnection != "GraphConn" {
		t.Fatalf("unexpected suspension: state=%q pending=%q", snap.State, snap.PendingConnection)
	}
}

func TestSilentTokenErrorTreatedAsMiss(t *testing.T) {
	fx := newFixture()
	fx.tokens.err = errors.New("token service down")
	r := &fakeResponder{}

	if err := fx.engine.Begin(context.Background(), userActivity("profile"), ActionProfile, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(r.signInRequests) != 1 {
		t.Fatalf("expected fall through to interactive sign-in, got %v", r.signInRequests)
	}
}

func TestSignInCallbackDeliversToken(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}
	ctx := context.Background()

	if err := fx.engine.Begin(ctx, userActivity("profile"), ActionProfile, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	callback := userActivity("")
	callback.Token = "fresh-token"
	handled, err := fx.engine.Continue(ctx, callback, r)
	if err != nil || !handled {
		t.Fatalf("Continue: handled=%v err=%v", handled, err)
	}
	if !strings.Contains(r.lastText(t), "Profile:") {
		t.Fatalf("expected dispatch after sign-in, got %q", r.lastText(t))
	}
}

func TestSignInCancelledEndsDialog(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}
	ctx := context.Background()

	if err := fx.engine.Begin(ctx, userActivity("tickets"), ActionListTickets, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	handled, err := fx.engine.Continue(ctx, userActivity(""), r)
	if err != nil || !handled {
		t.Fatalf("Continue: handled=%v err=%v", handled, err)
	}
	if got := r.lastText(t); got != "Authentication failed or was cancelled." {
		t.Fatalf("unexpected message %q", got)
	}
	if fx.tickets.lastToken != "" {
		t.Fatal("no ticket call should have been made after a cancelled sign-in")
	}
	if snap, _ := fx.states.Load(ctx, "conv-1"); snap != nil {
		t.Fatal("dialog state should have been cleared")
	}
}

func TestNoActionableCommand(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}

	if err := fx.engine.Begin(context.Background(), userActivity("gibberish"), ActionNone, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := r.lastText(t); got != "No actionable command supplied." {
		t.Fatalf("unexpected message %q", got)
	}
	if fx.tokens.calls != 0 {
		t.Fatal("no token fetch should happen for an unclassified action")
	}
}

func TestContinueWithoutActiveDialog(t *testing.T) {
	fx := newFixture()
	handled, err := fx.engine.Continue(context.Background(), userActivity("hello"), &fakeResponder{})
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if handled {
		t.Fatal("expected handled=false with no active dialog")
	}
}

// runToConfirm drives a create-ticket dialog up to the confirmation step.
func runToConfirm(t *testing.T, fx *engineFixture, r *fakeResponder, title, description string) {
	t.Helper()
	ctx := context.Background()
	fx.tokens.tokens["TicketConn"] = "ticket-token"

	if err := fx.engine.Begin(ctx, userActivity("create ticket"), ActionCreateTicket, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := fx.engine.Continue(ctx, userActivity(title), r); err != nil {
		t.Fatalf("title turn: %v", err)
	}
	if _, err := fx.engine.Continue(ctx, userActivity(description), r); err != nil {
		t.Fatalf("description turn: %v", err)
	}
}

func TestCreateTicketHappyPath(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}
	ctx := context.Background()

	runToConfirm(t, fx, r, "Printer broken", "The office printer rejects every job.")
	if _, err := fx.engine.Continue(ctx, userActivity("yes"), r); err != nil {
		t.Fatalf("confirm turn: %v", err)
	}

	if len(fx.tickets.created) != 1 {
		t.Fatalf("expected one created ticket, got %d", len(fx.tickets.created))
	}
	created := fx.tickets.created[0]
	if created.Title != "Printer broken" {
		t.Errorf("title = %q", created.Title)
	}
	if fx.tickets.lastToken != "ticket-token" {
		t.Errorf("create used token %q", fx.tickets.lastToken)
	}
	if !strings.Contains(r.lastText(t), "Ticket created successfully.") {
		t.Errorf("unexpected final message %q", r.lastText(t))
	}
	if snap, _ := fx.states.Load(ctx, "conv-1"); snap != nil {
		t.Error("dialog state should be cleared after creation")
	}
}

func TestCreateTicketTitleValidation(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}
	ctx := context.Background()
	fx.tokens.tokens["TicketConn"] = "ticket-token"

	if err := fx.engine.Begin(ctx, userActivity("create ticket"), ActionCreateTicket, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// Two characters: rejected, state stays on the title step.
	if _, err := fx.engine.Continue(ctx, userActivity("ab"), r); err != nil {
		t.Fatalf("short title turn: %v", err)
	}
	if got := r.lastText(t); got != retryTitle {
		t.Fatalf("expected title retry prompt, got %q", got)
	}
	snap, _ := fx.states.Load(ctx, "conv-1")
	if snap == nil || snap.State != StateTicketTitle {
		t.Fatalf("expected to remain on title step, got %+v", snap)
	}

	// Exactly three characters: accepted.
	if _, err := fx.engine.Continue(ctx, userActivity("abc"), r); err != nil {
		t.Fatalf("valid title turn: %v", err)
	}
	snap, _ = fx.states.Load(ctx, "conv-1")
	if snap == nil || snap.State != StateTicketDescription {
		t.Fatalf("expected description step, got %+v", snap)
	}
	if snap.Title != "abc" {
		t.Fatalf("stored title = %q", snap.Title)
	}
}

func TestCreateTicketDescriptionValidation(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}
	ctx := context.Background()
	fx.tokens.tokens["TicketConn"] = "ticket-token"

	if err := fx.engine.Begin(ctx, userActivity("create ticket"), ActionCreateTicket, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := fx.engine.Continue(ctx, userActivity("Broken VPN"), r); err != nil {
		t.Fatalf("title turn: %v", err)
	}

	// Nine characters: rejected.
	if _, err := fx.engine.Continue(ctx, userActivity("123456789"), r); err != nil {
		t.Fatalf("short description turn: %v", err)
	}
	if got := r.lastText(t); got != retryDescription {
		t.Fatalf("expected description retry prompt, got %q", got)
	}

	// Ten characters: accepted, moves to confirmation.
	if _, err := fx.engine.Continue(ctx, userActivity("1234567890"), r); err != nil {
		t.Fatalf("valid description turn: %v", err)
	}
	snap, _ := fx.states.Load(ctx, "conv-1")
	if snap == nil || snap.State != StateTicketConfirm {
		t.Fatalf("expected confirm step, got %+v", snap)
	}
}

func TestCreateTicketDeclineDoesNotCreate(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}
	ctx := context.Background()

	runToConfirm(t, fx, r, "Printer broken", "The office printer rejects every job.")
	if _, err := fx.engine.Continue(ctx, userActivity("no"), r); err != nil {
		t.Fatalf("confirm turn: %v", err)
	}

	if len(fx.tickets.created) != 0 {
		t.Fatal("declined confirmation must not create a ticket")
	}
	if got := r.lastText(t); got != cancelledMessage {
		t.Fatalf("unexpected message %q", got)
	}
	if snap, _ := fx.states.Load(ctx, "conv-1"); snap != nil {
		t.Fatal("dialog state should be cleared after cancellation")
	}
}

func TestCreateTicketAmbiguousConfirmRetries(t *testing.T) {
	fx := newFixture()
	r := &fakeResponder{}
	ctx := context.Background()

	runToConfirm(t, fx, r, "Printer broken", "The office printer rejects every job.")
	if _, err := fx.engine.Continue(ctx, userActivity("maybe"), r); err != nil {
		t.Fatalf("confirm turn: %v", err)
	}

	if got := r.lastText(t); got != retryConfirm {
		t.Fatalf("unexpected message %q", got)
	}
	snap, _ := fx.states.Load(ctx, "conv-1")
	if snap == nil || snap.State != StateTicketConfirm {
		t.Fatalf("expected to remain on confirm step, got %+v", snap)
	}
}

func TestCreateTicketTimeout(t *testing.T) {
	fx := newFixture()
	fx.tickets.createErr = context.DeadlineExceeded
	r := &fakeResponder{}
	ctx := context.Background()

	runToConfirm(t, fx, r, "Printer broken", "The office printer rejects every job.")
	if _, err := fx.engine.Continue(ctx, userActivity("yes"), r); err != nil {
		t.Fatalf("confirm turn: %v", err)
	}

	if got := r.lastText(t); got != timeoutMessage {
		t.Fatalf("unexpected message %q", got)
	}
	if snap, _ := fx.states.Load(ctx, "conv-1"); snap != nil {
		t.Fatal("dialog must end after a timeout, not retry")
	}
}

func TestCreateTicketServiceUnavailable(t *testing.T) {
	fx := newFixture()
	fx.tickets.createErr = apperrors.NewStorageUnavailable(errors.New("connection refused"))
	r := &fakeResponder{}
	ctx := context.Background()

	runToConfirm(t, fx, r, "Printer broken", "The office printer rejects every job.")
	if _, err := fx.engine.Continue(ctx, userActivity("yes"), r); err != nil {
		t.Fatalf("confirm turn: %v", err)
	}
	if got := r.lastText(t); got != createUnavailableHint {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestListTicketsEmpty(t *testing.T) {
	fx := newFixture()
	fx.tokens.tokens["TicketConn"] = "ticket-token"
	r := &fakeResponder{}

	if err := fx.engine.Begin(context.Background(), userActivity("tickets"), ActionListTickets, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := r.lastText(t); got != "No tickets found." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestListTicketsRendersEachTicket(t *testing.T) {
	fx := newFixture()
	fx.tokens.tokens["TicketConn"] = "ticket-token"
	fx.tickets.listing = []dto.TicketResponse{
		{ID: "t-1", Title: "Printer broken", Status: domain.TicketStatusNew},
		{ID: "t-2", Title: "VPN down", Status: domain.TicketStatusInProgress},
	}
	r := &fakeResponder{}

	if err := fx.engine.Begin(context.Background(), userActivity("tickets"), ActionListTickets, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	out := r.lastText(t)
	for _, want := range []string{"Printer broken", "VPN down", "t-1", "t-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q: %q", want, out)
		}
	}
}

func TestGraphFailureSendsGenericMessage(t *testing.T) {
	fx := newFixture()
	fx.tokens.tokens["GraphConn"] = "cached-token"
	fx.graph.err = errors.New("503 from upstream")
	r := &fakeResponder{}

	if err := fx.engine.Begin(context.Background(), userActivity("profile"), ActionProfile, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := r.lastText(t); got != genericFailureMessage {
		t.Fatalf("raw error must not reach the user, got %q", got)
	}
}

func TestFeedbackFormFlow(t *testing.T) {
	fx := newFixture()
	fx.tokens.tokens["TicketConn"] = "ticket-token"
	r := &fakeResponder{}
	ctx := context.Background()

	feedback := &FeedbackContext{ActivityID: "act-42", BotResponse: "Here is your answer.", Category: "AI Response"}
	if err := fx.engine.Begin(ctx, userActivity("feedback"), ActionShowFeedbackForm, feedback, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(r.feedbackForms) != 1 || r.feedbackForms[0].ActivityID != "act-42" {
		t.Fatalf("expected form with context, got %v", r.feedbackForms)
	}

	submit := userActivity("")
	submit.Value = map[string]any{
		"action":   "submitFeedback",
		"reaction": "like",
		"comment":  "Very helpful",
	}
	handled, err := fx.engine.Continue(ctx, submit, r)
	if err != nil || !handled {
		t.Fatalf("Continue: handled=%v err=%v", handled, err)
	}

	if len(fx.feedback.submitted) != 1 {
		t.Fatalf("expected one submission, got %d", len(fx.feedback.submitted))
	}
	got := fx.feedback.submitted[0]
	if got.Reaction != "like" || got.Comment != "Very helpful" {
		t.Errorf("submission = %+v", got)
	}
	if got.ActivityID != "act-42" || got.BotResponse != "Here is your answer." {
		t.Errorf("context not carried into submission: %+v", got)
	}
	if got.UserID != "user-1" || got.ConversationID != "conv-1" {
		t.Errorf("identity not filled from conversation: %+v", got)
	}
	if !strings.Contains(r.lastText(t), "Thank you") {
		t.Errorf("unexpected final message %q", r.lastText(t))
	}
}

func TestDirectFeedbackSubmissionSkipsForm(t *testing.T) {
	fx := newFixture()
	fx.tokens.tokens["TicketConn"] = "ticket-token"
	r := &fakeResponder{}

	act := userActivity("")
	act.Value = map[string]any{
		"action":   "submitFeedback",
		"reaction": "dislike",
	}
	if err := fx.engine.Begin(context.Background(), act, ActionSubmitFeedback, &FeedbackContext{Reaction: "dislike"}, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if len(r.feedbackForms) != 0 {
		t.Fatal("direct submission must not re-send the form")
	}
	if len(fx.feedback.submitted) != 1 {
		t.Fatalf("expected one submission, got %d", len(fx.feedback.submitted))
	}
}

func TestFeedbackSubmitFailure(t *testing.T) {
	fx := newFixture()
	fx.tokens.tokens["TicketConn"] = "ticket-token"
	fx.feedback.err = apperrors.NewStorageUnavailable(errors.New("down"))
	r := &fakeResponder{}
	ctx := context.Background()

	if err := fx.engine.Begin(ctx, userActivity("feedback"), ActionShowFeedbackForm, nil, r); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	submit := userActivity("")
	submit.Value = map[string]any{"action": "submitFeedback", "reaction": "like"}
	if _, err := fx.engine.Continue(ctx, submit, r); err != nil {
		t.Fatalf("Continue: %v", err)
	}

	if !strings.Contains(r.lastText(t), "error submitting your feedback") {
		t.Fatalf("unexpected message %q", r.lastText(t))
	}
	if snap, _ := fx.states.Load(ctx, "conv-1"); snap != nil {
		t.Fatal("dialog must end after a failed submission")
	}
}
