package escalate

import (
	"context"
	"fmt"
)

// Escalation carries everything needed to notify the alert destination
// about an unanswered message.
type Escalation struct {
	Destination  int64  // Chat escalations are delivered to
	Conversation int64  // Chat the unanswered message came from
	GroupTitle   string // Human-readable name of that chat
	SenderID     int64  // Originating sender's numeric id
	SenderHandle string // Originating sender's handle, may be empty
	MessageID    int64  // Original message, for forwarding
	Text         string // Snapshot of the original content
}

// Notice renders the human-readable escalation text.
func (e Escalation) Notice() string {
	sender := fmt.Sprintf("id %d", e.SenderID)
	if e.SenderHandle != "" {
		sender = "@" + e.SenderHandle
	}

	text := e.Text
	if text == "" {
		text = "(no text)"
	}

	title := e.GroupTitle
	if title == "" {
		title = fmt.Sprintf("chat %d", e.Conversation)
	}

	return fmt.Sprintf("📢 From group: %s\nUser %s:\n%s", title, sender, text)
}

// Escalator is the interface for delivering escalations.
type Escalator interface {
	// Escalate delivers the escalation to its destination.
	// Returns nil if the notice was delivered.
	// Implementations should respect context cancellation.
	Escalate(ctx context.Context, e Escalation) error

	// Name returns the escalator type for logging
	Name() string
}
