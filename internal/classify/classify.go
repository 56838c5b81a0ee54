// Package classify decides what the engine should do with an inbound
// message. Classification depends only on sender identity and
// conversation, never on message content: media-only and empty messages
// classify exactly like text.
package classify

import (
	"strings"

	"github.com/vigilbot/vigil/internal/roster"
	"github.com/vigilbot/vigil/internal/telegram"
)

// Action is the classifier's verdict for a message
type Action string

const (
	// Ignore means the message produces no engine activity
	Ignore Action = "ignore"

	// StartTimer means the message should arm a new pending alert
	StartTimer Action = "start_timer"

	// CancelTimers means every armed alert in the conversation resolves
	CancelTimers Action = "cancel_timers"
)

// IgnoreReason explains why a message was ignored
type IgnoreReason string

const (
	ReasonNone        IgnoreReason = ""
	ReasonNoMessage   IgnoreReason = "no_message"
	ReasonNotGroup    IgnoreReason = "not_group"
	ReasonDestination IgnoreReason = "destination_chat"
	ReasonSelf        IgnoreReason = "from_self"
	ReasonCommand     IgnoreReason = "command"
)

// Decision is the classifier output
type Decision struct {
	Action Action
	Reason IgnoreReason
}

// Classify evaluates a message against a roster snapshot.
//
// Rules, in order:
//   - nil or chat-less messages are ignored
//   - non-group chats are not monitored
//   - the alert-destination chat is excluded from monitoring
//   - the bot's own messages are ignored
//   - bot commands go to the command layer, not the engine
//   - a team sender (by id or handle) cancels all timers in the chat
//   - everything else, including unknown senders, starts a timer
//
// Unknown or unresolvable senders classify as non-team: the failure mode
// is an extra escalation, never a silently dropped one.
func Classify(msg *telegram.Message, botID int64, snap *roster.Snapshot) Decision {
	if msg == nil || msg.Chat.ID == 0 {
		return Decision{Action: Ignore, Reason: ReasonNoMessage}
	}

	if !msg.Chat.IsGroup() {
		return Decision{Action: Ignore, Reason: ReasonNotGroup}
	}

	if snap.Destination != 0 && msg.Chat.ID == snap.Destination {
		return Decision{Action: Ignore, Reason: ReasonDestination}
	}

	if msg.From != nil && msg.From.ID == botID {
		return Decision{Action: Ignore, Reason: ReasonSelf}
	}

	if strings.HasPrefix(msg.Text, "/") {
		return Decision{Action: Ignore, Reason: ReasonCommand}
	}

	var senderID int64
	var handle string
	if msg.From != nil {
		senderID = msg.From.ID
		handle = msg.From.Username
	}

	if snap.IsTeamMember(senderID, handle) {
		return Decision{Action: CancelTimers}
	}

	return Decision{Action: StartTimer}
}
