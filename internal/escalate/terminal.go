package escalate

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// Terminal writes escalations to stderr, for dry runs and ops testing
type Terminal struct {
	mu sync.Mutex // Protects concurrent writes to stderr
}

// NewTerminal creates a terminal escalator
func NewTerminal() *Terminal {
	return &Terminal{}
}

// Escalate writes the escalation to stderr
func (t *Terminal) Escalate(ctx context.Context, e Escalation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Serialize writes to stderr to prevent interleaved output
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(os.Stderr, "\n🚨 unanswered message in chat %d\n", e.Conversation)
	fmt.Fprintf(os.Stderr, "%s\n", e.Notice())

	return nil
}

// Name returns "terminal"
func (t *Terminal) Name() string {
	return "terminal"
}
