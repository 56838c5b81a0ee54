package watcher

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/vigilbot/vigil/internal/events"
	"github.com/vigilbot/vigil/internal/telegram"
)

// isCommand reports whether the message is a bot command addressed to us
func isCommand(msg *telegram.Message) bool {
	return strings.HasPrefix(msg.Text, "/")
}

// parseCommand splits "/addteam@vigil_bot a b" into "addteam", ["a", "b"].
// The @botname suffix Telegram appends in groups is dropped.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at != -1 {
		name = name[:at]
	}

	args := fields[1:]
	if len(args) == 0 {
		args = nil
	}

	return strings.ToLower(name), args
}

// handleCommand executes an owner-gated configuration command and replies
// in the chat it was issued from. Unknown commands are ignored silently
// (they may belong to another bot in the group).
func (w *Watcher) handleCommand(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.From.ID == w.botID {
		return
	}

	name, args := parseCommand(msg.Text)

	var reply string
	var err error

	switch name {
	case "setmaingroup":
		if !w.authorize(ctx, msg, name, true) {
			return
		}
		if err = w.store.SetDestination(msg.Chat.ID); err == nil {
			reply = fmt.Sprintf("✅ Alert destination set to: %d", msg.Chat.ID)
			w.events.Emit(events.NewEvent(events.RosterDestinationSet, msg.Chat.ID))
		}

	case "addteam":
		if !w.authorize(ctx, msg, name, false) {
			return
		}
		reply, err = w.addTeam(args, msg.Chat.ID)

	case "delteam":
		if !w.authorize(ctx, msg, name, false) {
			return
		}
		reply, err = w.delTeam(args, msg.Chat.ID)

	case "listteam":
		if !w.authorize(ctx, msg, name, false) {
			return
		}
		reply, err = w.listTeam()

	case "setdelay":
		if !w.authorize(ctx, msg, name, false) {
			return
		}
		reply, err = w.setDelay(args, msg.Chat.ID)

	case "status":
		if !w.authorize(ctx, msg, name, false) {
			return
		}
		reply, err = w.status()

	default:
		return
	}

	if err != nil {
		log.Printf("ERROR: command /%s failed: %v", name, err)
		reply = fmt.Sprintf("⚠️ /%s failed: %v", name, err)
	}

	w.reply(ctx, msg.Chat.ID, reply)
}

// authorize checks the sender may issue configuration commands.
// When bootstrap is true and no owner exists yet, the sender becomes the
// first owner; this makes the initial /setmaingroup of a fresh install
// self-service.
func (w *Watcher) authorize(ctx context.Context, msg *telegram.Message, command string, bootstrap bool) bool {
	senderID := msg.From.ID

	ok, err := w.store.IsOwner(senderID)
	if err != nil {
		log.Printf("ERROR: owner check failed: %v", err)
		return false
	}

	if !ok && bootstrap {
		count, err := w.store.OwnerCount()
		if err != nil {
			log.Printf("ERROR: owner count failed: %v", err)
			return false
		}
		if count == 0 {
			if err := w.store.AddOwner(senderID); err != nil {
				log.Printf("ERROR: bootstrap owner failed: %v", err)
				return false
			}
			return true
		}
	}

	if !ok {
		w.events.Emit(events.NewEvent(events.CommandDenied, msg.Chat.ID).WithPayload(command))
		w.reply(ctx, msg.Chat.ID, "⛔ Only owners can change the watchdog configuration.")
		return false
	}

	return true
}

func (w *Watcher) addTeam(args []string, chatID int64) (string, error) {
	if len(args) == 0 {
		return "Usage: /addteam @handle [@handle ...]", nil
	}

	for _, arg := range args {
		userID, handle := parseMemberRef(arg)
		if err := w.store.AddMember(userID, handle); err != nil {
			return "", err
		}
		w.events.Emit(events.NewEvent(events.RosterMemberAdded, chatID).WithPayload(arg))
	}

	return w.teamSummary("✅ Team updated")
}

func (w *Watcher) delTeam(args []string, chatID int64) (string, error) {
	if len(args) == 0 {
		return "Usage: /delteam @handle [@handle ...]", nil
	}

	for _, arg := range args {
		userID, handle := parseMemberRef(arg)
		removed, err := w.store.RemoveMember(userID, handle)
		if err != nil {
			return "", err
		}
		if removed > 0 {
			w.events.Emit(events.NewEvent(events.RosterMemberRemoved, chatID).WithPayload(arg))
		}
	}

	return w.teamSummary("✅ Team updated")
}

// parseMemberRef interprets a command argument as either a numeric
// Telegram user id or a handle
func parseMemberRef(arg string) (int64, string) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 0 {
		return id, ""
	}
	return 0, arg
}

func (w *Watcher) listTeam() (string, error) {
	return w.teamSummary("👥 Team")
}

func (w *Watcher) teamSummary(prefix string) (string, error) {
	members, err := w.store.ListMembers()
	if err != nil {
		return "", err
	}

	var names []string
	for _, m := range members {
		switch {
		case m.Handle != "":
			names = append(names, "@"+m.Handle)
		default:
			names = append(names, strconv.FormatInt(m.UserID, 10))
		}
	}

	list := strings.Join(names, ", ")
	if list == "" {
		list = "empty"
	}

	return fmt.Sprintf("%s: %s", prefix, list), nil
}

func (w *Watcher) setDelay(args []string, chatID int64) (string, error) {
	if len(args) != 1 {
		return "Usage: /setdelay <duration> (e.g. 90s, 3m)", nil
	}

	delay, err := parseDelay(args[0])
	if err != nil {
		return fmt.Sprintf("⚠️ %v", err), nil
	}

	if err := w.store.SetDelay(delay); err != nil {
		return "", err
	}
	w.events.Emit(events.NewEvent(events.RosterDelaySet, chatID).WithPayload(delay.String()))

	return fmt.Sprintf("✅ Escalation delay set to %s", delay), nil
}

// parseDelay accepts a duration string or a bare number of seconds
func parseDelay(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		s = strconv.Itoa(secs) + "s"
	}

	delay, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("cannot parse delay %q", s)
	}
	if delay <= 0 {
		return 0, fmt.Errorf("delay must be positive, got %s", delay)
	}
	return delay, nil
}

func (w *Watcher) status() (string, error) {
	snap, err := w.store.Snapshot(w.defaultDelay)
	if err != nil {
		return "", err
	}

	stats := w.engine.Stats()

	destination := "unset"
	if snap.Destination != 0 {
		destination = strconv.FormatInt(snap.Destination, 10)
	}

	return fmt.Sprintf(
		"🐶 vigil status\nDestination: %s\nDelay: %s\nArmed alerts: %d\nFired: %d\nCancelled: %d",
		destination, snap.Delay, stats.ArmedTotal, stats.Fired, stats.Cancelled,
	), nil
}

// reply sends a best-effort response into the originating chat
func (w *Watcher) reply(ctx context.Context, chatID int64, text string) {
	if text == "" {
		return
	}
	if err := w.transport.SendMessage(ctx, chatID, text); err != nil {
		log.Printf("WARN: could not reply in chat %d: %v", chatID, err)
	}
}
