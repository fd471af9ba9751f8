package domain

import "testing"

func TestParseTicketStatus(t *testing.T) {
	for _, valid := range []string{"New", "InProgress", "Resolved", "Closed"} {
		status, err := ParseTicketStatus(valid)
		if err != nil {
			t.Errorf("ParseTicketStatus(%q): %v", valid, err)
		}
		if string(status) != valid {
			t.Errorf("ParseTicketStatus(%q) = %q", valid, status)
		}
	}
	for _, invalid := range []string{"", "new", "Open", "DONE"} {
		if _, err := ParseTicketStatus(invalid); err == nil {
			t.Errorf("ParseTicketStatus(%q) should fail", invalid)
		}
	}
}

func TestETagTracksVersion(t *testing.T) {
	ticket := &Ticket{}
	if ticket.ETag() != "0" {
		t.Errorf("etag = %q", ticket.ETag())
	}
	ticket.Version = 7
	if ticket.ETag() != "7" {
		t.Errorf("etag = %q", ticket.ETag())
	}
}

func TestApplySession(t *testing.T) {
	ticket := &Ticket{}
	ticket.ApplySession(nil)
	if ticket.ConversationID != "" {
		t.Error("nil session must be a no-op")
	}

	ticket.ApplySession(&SessionInfo{
		ConversationID: "conv-1",
		SessionID:      "conv-1",
		TenantID:       "tenant-1",
		ChannelID:      "msteams",
		Locale:         "en-US",
		Messages:       []SessionMessage{{From: "bot", Text: "hello", Type: "bot"}},
	})
	if ticket.ConversationID != "conv-1" || ticket.TenantID != "tenant-1" {
		t.Errorf("session fields: %+v", ticket)
	}
	if len(ticket.Messages) != 1 || ticket.Messages[0].Type != "bot" {
		t.Errorf("messages: %+v", ticket.Messages)
	}
}
