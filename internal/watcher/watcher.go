// Package watcher wires the transport client, classifier, and escalation
// engine into the long-lived watchdog process, and owns the owner-gated
// configuration command surface.
package watcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vigilbot/vigil/internal/classify"
	"github.com/vigilbot/vigil/internal/config"
	"github.com/vigilbot/vigil/internal/engine"
	"github.com/vigilbot/vigil/internal/events"
	"github.com/vigilbot/vigil/internal/roster"
	"github.com/vigilbot/vigil/internal/telegram"
)

// pollBackoff is how long to wait after a failed update poll
const pollBackoff = 3 * time.Second

// Transport is the inbound/outbound slice of the chat client the watcher
// needs. *telegram.Client satisfies it.
type Transport interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Watcher is the long-lived process coordinator
type Watcher struct {
	cfg       *config.Config
	store     *roster.Store
	engine    *engine.Engine
	transport Transport
	events    *events.Bus

	botID        int64
	defaultDelay time.Duration
	pollTimeout  time.Duration
	offset       int64
}

// New creates a watcher. The config must already be validated.
func New(cfg *config.Config, store *roster.Store, eng *engine.Engine, transport Transport, bus *events.Bus) (*Watcher, error) {
	delay, err := cfg.AlertDelayDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	pollTimeout, err := cfg.PollTimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Watcher{
		cfg:          cfg,
		store:        store,
		engine:       eng,
		transport:    transport,
		events:       bus,
		defaultDelay: delay,
		pollTimeout:  pollTimeout,
	}, nil
}

// Run polls for updates and dispatches them until the context is
// cancelled, then shuts the engine down. Poll failures are logged and
// retried after a backoff; they never stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	me, err := w.transport.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("identify bot: %w", err)
	}
	w.botID = me.ID

	log.Printf("watchdog started as @%s", me.Username)
	w.events.Emit(events.NewEvent(events.WatcherStarted, 0).WithPayload(me.Username))

	defer func() {
		w.events.Emit(events.NewEvent(events.WatcherStopped, 0))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := w.engine.Shutdown(shutdownCtx); err != nil {
			log.Printf("WARN: engine shutdown: %v", err)
		}
	}()

	for {
		updates, err := w.transport.GetUpdates(ctx, w.offset, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			log.Printf("WARN: poll failed, retrying in %s: %v", pollBackoff, err)
			w.events.Emit(events.NewEvent(events.PollFailed, 0).WithError(err))

			select {
			case <-time.After(pollBackoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		for _, update := range updates {
			if update.UpdateID >= w.offset {
				w.offset = update.UpdateID + 1
			}
			w.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage routes one inbound message: commands to the command
// layer, everything else through the classifier into the engine.
func (w *Watcher) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg == nil {
		return
	}

	w.events.Emit(events.NewEvent(events.MessageReceived, msg.Chat.ID))

	snap, err := w.store.Snapshot(w.defaultDelay)
	if err != nil {
		log.Printf("ERROR: roster snapshot failed, message dropped: %v", err)
		return
	}

	if isCommand(msg) {
		w.handleCommand(ctx, msg)
		return
	}

	decision := classify.Classify(msg, w.botID, snap)
	switch decision.Action {
	case classify.CancelTimers:
		w.engine.CancelConversation(msg.Chat.ID)

	case classify.StartTimer:
		var senderID int64
		var handle string
		if msg.From != nil {
			senderID = msg.From.ID
			handle = msg.From.Username
		}

		_, err := w.engine.Arm(engine.MessageRef{
			Conversation: msg.Chat.ID,
			MessageID:    msg.MessageID,
			SenderID:     senderID,
			SenderHandle: handle,
			GroupTitle:   msg.Chat.Title,
			Text:         msg.Text,
		}, snap.Delay)
		if err != nil {
			log.Printf("ERROR: arm failed for chat %d: %v", msg.Chat.ID, err)
		}

	case classify.Ignore:
		w.events.Emit(events.NewEvent(events.MessageIgnored, msg.Chat.ID).
			WithPayload(string(decision.Reason)))
	}
}

// Engine exposes the engine for status queries (CLI, TUI)
func (w *Watcher) Engine() *engine.Engine {
	return w.engine
}
