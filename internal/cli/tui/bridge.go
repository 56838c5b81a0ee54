package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vigilbot/vigil/internal/events"
)

// Bridge connects the event bus to the bubbletea program
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a new bridge for the given program
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{
		program: program,
	}
}

// Handler returns an event handler function for the event bus
func (b *Bridge) Handler() events.Handler {
	return func(evt events.Event) {
		msg := b.eventToMsg(evt)
		if msg != nil {
			b.program.Send(msg)
		}
	}
}

// eventToMsg converts an events.Event to a tea.Msg.
// High-churn events (message.received, message.ignored) stay off the log
// pane; alert and roster transitions land there with a short description.
func (b *Bridge) eventToMsg(evt events.Event) tea.Msg {
	switch evt.Type {
	case events.WatcherStarted:
		username, _ := evt.Payload.(string)
		return StartedMsg{Username: username}

	case events.RosterDestinationSet:
		return DestinationMsg{ChatID: evt.Conversation}

	case events.AlertArmed:
		return logMsgf(evt, "%s countdown armed in chat %d (%v)",
			IconArmed, evt.Conversation, evt.Payload)

	case events.AlertCancelled:
		return logMsgf(evt, "%s answered in chat %d", IconCancelled, evt.Conversation)

	case events.AlertFired:
		return logMsgf(evt, "%s escalated from chat %d (%v)",
			IconFired, evt.Conversation, evt.Payload)

	case events.AlertUnescalated:
		return logMsgf(evt, "⚠ fired in chat %d but no destination set", evt.Conversation)

	case events.AlertDeliveryFailed:
		return logMsgf(evt, "⚠ delivery failed for chat %d: %s", evt.Conversation, evt.Error)

	case events.PollFailed:
		return logMsgf(evt, "⚠ poll failed: %s", evt.Error)

	case events.RosterMemberAdded:
		return logMsgf(evt, "+ team member %v", evt.Payload)

	case events.RosterMemberRemoved:
		return logMsgf(evt, "- team member %v", evt.Payload)

	case events.RosterDelaySet:
		return logMsgf(evt, "delay set to %v", evt.Payload)

	case events.CommandDenied:
		return logMsgf(evt, "denied /%v in chat %d", evt.Payload, evt.Conversation)

	default:
		return nil
	}
}

func logMsgf(evt events.Event, format string, args ...any) LogMsg {
	return LogMsg{
		Line: evt.Time.Format("15:04:05") + " " + fmt.Sprintf(format, args...),
	}
}

// SendDone sends a DoneMsg to the program
func (b *Bridge) SendDone() {
	b.program.Send(DoneMsg{})
}

// SendQuit sends a QuitMsg to the program
func (b *Bridge) SendQuit() {
	b.program.Send(QuitMsg{})
}
