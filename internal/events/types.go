package events

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single occurrence in the watchdog lifecycle
type Event struct {
	// Time is when the event occurred (set by bus on emit)
	Time time.Time `json:"time"`

	// Type identifies what happened
	Type EventType `json:"type"`

	// Conversation is the chat ID this event relates to (0 for process events)
	Conversation int64 `json:"conversation,omitempty"`

	// Alert is the pending-alert ID (empty if not alert-related)
	Alert string `json:"alert,omitempty"`

	// Payload contains event-specific data (type varies by event)
	Payload any `json:"payload,omitempty"`

	// Error contains error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category
type EventType string

// Watcher lifecycle events
const (
	WatcherStarted EventType = "watcher.started"
	WatcherStopped EventType = "watcher.stopped"
	PollFailed     EventType = "poll.failed"
)

// Inbound message events
const (
	MessageReceived EventType = "message.received"
	MessageIgnored  EventType = "message.ignored"
)

// Alert lifecycle events
const (
	// AlertArmed is emitted when a non-team message starts a countdown
	// Payload: sender handle (string)
	AlertArmed EventType = "alert.armed"

	// AlertCancelled is emitted when a team reply resolves an armed alert
	AlertCancelled EventType = "alert.cancelled"

	// AlertFired is emitted when a countdown elapses unanswered
	AlertFired EventType = "alert.fired"

	// AlertUnescalated is emitted when an alert fires with no destination set
	AlertUnescalated EventType = "alert.unescalated"

	// AlertDeliveryFailed is emitted when the escalation send/forward fails
	AlertDeliveryFailed EventType = "alert.delivery.failed"
)

// Roster and command events
const (
	RosterMemberAdded    EventType = "roster.member.added"
	RosterMemberRemoved  EventType = "roster.member.removed"
	RosterDestinationSet EventType = "roster.destination.set"
	RosterDelaySet       EventType = "roster.delay.set"
	CommandDenied        EventType = "command.denied"
)

// NewEvent creates an event with the given type and conversation
func NewEvent(eventType EventType, conversation int64) Event {
	return Event{
		Type:         eventType,
		Conversation: conversation,
	}
}

// WithAlert returns a copy of the event with the alert ID set
func (e Event) WithAlert(id string) Event {
	e.Alert = id
	return e
}

// WithPayload returns a copy of the event with the payload set
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}

// WithError returns a copy of the event with the error message set
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsFailure returns true if this is a failure event type
func (e Event) IsFailure() bool {
	return strings.HasSuffix(string(e.Type), ".failed")
}

// String returns a human-readable representation of the event
func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))

	if e.Conversation != 0 {
		parts = append(parts, fmt.Sprintf("conv=%d", e.Conversation))
	}

	if e.Alert != "" {
		parts = append(parts, fmt.Sprintf("alert=%s", e.Alert))
	}

	return strings.Join(parts, " ")
}
