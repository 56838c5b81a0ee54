package escalate

import (
	"context"
	"fmt"
	"log"
)

// Transport is the outbound slice of the chat client the Telegram
// escalator needs.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	ForwardMessage(ctx context.Context, toChatID, fromChatID, messageID int64) error
}

// Telegram delivers escalations into the alert destination chat:
// a notice message followed by a forward of the original.
type Telegram struct {
	transport Transport
}

// NewTelegram creates a Telegram escalator over the given transport
func NewTelegram(transport Transport) *Telegram {
	return &Telegram{transport: transport}
}

// Escalate sends the notice, then attempts to forward the original
// message. A forward failure never suppresses the notice: the notice has
// already been sent, a fallback line is appended best-effort, and the
// failure is only logged. An error is returned only when the notice
// itself could not be delivered.
func (t *Telegram) Escalate(ctx context.Context, e Escalation) error {
	if err := t.transport.SendMessage(ctx, e.Destination, e.Notice()); err != nil {
		return fmt.Errorf("send escalation notice: %w", err)
	}

	if err := t.transport.ForwardMessage(ctx, e.Destination, e.Conversation, e.MessageID); err != nil {
		log.Printf("WARN: could not forward original message %d from chat %d: %v", e.MessageID, e.Conversation, err)

		fallback := "(the original message could not be forwarded)"
		if err := t.transport.SendMessage(ctx, e.Destination, fallback); err != nil {
			log.Printf("WARN: could not send forward fallback: %v", err)
		}
	}

	return nil
}

// Name returns "telegram"
func (t *Telegram) Name() string {
	return "telegram"
}
