package domain

import "time"

// SessionInfo carries conversational context from the bot alongside a
// ticket creation request. Everything here is optional audit data.
type SessionInfo struct {
	ConversationID string           `json:"conversationId,omitempty"`
	SessionID      string           `json:"sessionId,omitempty"`
	UserID         string           `json:"userId,omitempty"`
	UserName       string           `json:"userName,omitempty"`
	TenantID       string           `json:"tenantId,omitempty"`
	ChannelID      string           `json:"channelId,omitempty"`
	Locale         string           `json:"locale,omitempty"`
	Timestamp      time.Time        `json:"timestamp,omitempty"`
	Messages       []SessionMessage `json:"messages,omitempty"`
}

// SessionMessage is one entry in the ordered conversation log attached to
// a ticket for audit purposes.
type SessionMessage struct {
	MessageID string    `json:"messageId,omitempty"`
	From      string    `json:"from,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	// Type is "user" or "bot".
	Type string `json:"messageType,omitempty"`
}
