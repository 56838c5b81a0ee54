package engine

import (
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a pending alert
type State int32

const (
	// StateArmed means the countdown is running
	StateArmed State = iota

	// StateCancelled means a team reply resolved the alert; terminal
	StateCancelled

	// StateFired means the escalation was performed; terminal
	StateFired
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateCancelled:
		return "cancelled"
	case StateFired:
		return "fired"
	default:
		return "unknown"
	}
}

// MessageRef is a snapshot of the originating message: enough to
// reconstruct and forward it after the source conversation has moved on.
type MessageRef struct {
	Conversation int64
	MessageID    int64
	SenderID     int64
	SenderHandle string
	GroupTitle   string
	Text         string
}

// PendingAlert is one scheduled, cancellable escalation tied to one
// originating message. The terminal state is decided by compare-and-swap
// on the state word: exactly one of the cancel path and the fire path
// wins, independent of what the underlying timer does.
type PendingAlert struct {
	ID       string
	Ref      MessageRef
	ArmedAt  time.Time
	Deadline time.Time

	state atomic.Int32
	timer *time.Timer
}

// State returns the alert's current lifecycle state
func (a *PendingAlert) State() State {
	return State(a.state.Load())
}

// tryCancel transitions armed -> cancelled.
// Returns false if the alert already reached a terminal state.
func (a *PendingAlert) tryCancel() bool {
	return a.state.CompareAndSwap(int32(StateArmed), int32(StateCancelled))
}

// tryFire transitions armed -> fired.
// Returns false if the alert already reached a terminal state.
func (a *PendingAlert) tryFire() bool {
	return a.state.CompareAndSwap(int32(StateArmed), int32(StateFired))
}
