package events

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// JSONEvent is the wire format for serialized events on stdout.
type JSONEvent struct {
	// Type identifies the event (e.g., "alert.armed", "alert.fired")
	Type string `json:"type"`

	// Timestamp is when the event occurred (RFC3339 format)
	Timestamp time.Time `json:"timestamp"`

	// Conversation is the chat ID (omitted for process events)
	Conversation int64 `json:"conversation,omitempty"`

	// Alert is the pending-alert ID (omitted if not alert-related)
	Alert string `json:"alert,omitempty"`

	// Payload contains event-specific data
	Payload any `json:"payload,omitempty"`

	// Error contains error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// ToJSONEvent converts an internal Event to the wire format
func ToJSONEvent(e Event) JSONEvent {
	return JSONEvent{
		Type:         string(e.Type),
		Timestamp:    e.Time,
		Conversation: e.Conversation,
		Alert:        e.Alert,
		Payload:      e.Payload,
		Error:        e.Error,
	}
}

// IsJSONMode returns true if JSON event output should be enabled.
// Checks: (1) explicit forceJSON flag, (2) non-TTY stdout.
func IsJSONMode(forceJSON bool) bool {
	if forceJSON {
		return true
	}

	if os.Stdout != nil {
		return !term.IsTerminal(int(os.Stdout.Fd()))
	}

	return true
}

// JSONEmitter writes events as JSON lines to a writer.
// Thread-safe for concurrent Emit calls.
type JSONEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONEmitter creates a new JSON emitter that writes to w.
// Each event is written as a single JSON line (newline-delimited).
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{
		enc: json.NewEncoder(w),
	}
}

// Emit converts the internal Event to JSONEvent wire format and writes it.
func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(ToJSONEvent(event))
}

// Handler returns an event handler that writes each event as a JSON line
func (e *JSONEmitter) Handler() Handler {
	return func(event Event) {
		_ = e.Emit(event)
	}
}
