package dialog

// Action enumerates the commands the dialog engine can execute. One action
// per dialog invocation; chaining requires a fresh classify/auth cycle.
type Action string

const (
	ActionNone             Action = "none"
	ActionProfile          Action = "profile"
	ActionRecentMail       Action = "recentMail"
	ActionSendTestMail     Action = "sendTestMail"
	ActionCreateTicket     Action = "createTicket"
	ActionListTickets      Action = "listTickets"
	ActionSubmitFeedback   Action = "submitFeedback"
	ActionShowFeedbackForm Action = "showFeedbackForm"
)

// ResourceCategory names the resource an action needs a token for.
type ResourceCategory string

const (
	CategoryNone    ResourceCategory = "none"
	CategoryGraph   ResourceCategory = "graph"
	CategoryTickets ResourceCategory = "tickets"
)

// Classify maps an action to its resource category. Pure and total:
// anything outside the known set fails closed to CategoryNone rather than
// silently picking a default connection.
func Classify(action Action) ResourceCategory {
	switch action {
	case ActionProfile, ActionRecentMail, ActionSendTestMail:
		return CategoryGraph
	case ActionCreateTicket, ActionListTickets, ActionSubmitFeedback, ActionShowFeedbackForm:
		return CategoryTickets
	default:
		return CategoryNone
	}
}

// FeedbackContext is the optional payload carried by ShowFeedbackForm: the
// message being rated and any pre-selected reaction.
type FeedbackContext struct {
	ActivityID  string `json:"activityId,omitempty"`
	BotResponse string `json:"botResponse,omitempty"`
	Category    string `json:"category,omitempty"`
	Reaction    string `json:"reaction,omitempty"`
}
