// Package engine owns the pending-alert registry: one countdown per
// unanswered non-team message, blanket cancellation on team replies, and
// an at-most-once escalation per countdown that expires unresolved.
//
// Registry state is in-memory only. A process restart drops every armed
// alert; that loss is accepted, and only the roster store is durable. If
// durability is ever needed, persist (conversation, message ref, armed-at)
// tuples and recompute the remaining delay on startup.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vigilbot/vigil/internal/escalate"
	"github.com/vigilbot/vigil/internal/events"
)

// ConfigProvider supplies the alert destination at fire time.
// Destination edits apply to every subsequent fire, not retroactively.
type ConfigProvider interface {
	// Destination returns the alert destination chat, 0 when unset
	Destination() (int64, error)
}

// Engine tracks pending alerts across all monitored conversations.
// Inbound-message handling and timer expiry both mutate the registry;
// the registry mutex serializes them, and the per-alert CAS decides
// races between cancellation and firing.
type Engine struct {
	escalator escalate.Escalator
	config    ConfigProvider
	events    *events.Bus

	mu        sync.Mutex
	alerts    map[int64]map[string]*PendingAlert
	fired     int
	cancelled int
	closed    bool

	// resolved tracks alerts from arm to terminal state, including the
	// escalation side effect, so Shutdown can wait for in-flight fires
	resolved sync.WaitGroup

	escalateCtx    context.Context
	escalateCancel context.CancelFunc
}

// New creates an engine delivering escalations through the given escalator
func New(esc escalate.Escalator, cfg ConfigProvider, bus *events.Bus) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		escalator:      esc,
		config:         cfg,
		events:         bus,
		alerts:         make(map[int64]map[string]*PendingAlert),
		escalateCtx:    ctx,
		escalateCancel: cancel,
	}
}

// Arm registers a new pending alert for the message and starts its
// countdown. Every non-team message gets its own independent timer; no
// per-conversation limit applies. Returns the alert ID.
func (e *Engine) Arm(ref MessageRef, delay time.Duration) (string, error) {
	if delay <= 0 {
		return "", fmt.Errorf("delay must be positive, got %s", delay)
	}

	now := time.Now()
	alert := &PendingAlert{
		ID:       ulid.Make().String(),
		Ref:      ref,
		ArmedAt:  now,
		Deadline: now.Add(delay),
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", fmt.Errorf("engine is shut down")
	}

	conv := e.alerts[ref.Conversation]
	if conv == nil {
		conv = make(map[string]*PendingAlert)
		e.alerts[ref.Conversation] = conv
	}
	conv[alert.ID] = alert

	e.resolved.Add(1)
	alert.timer = time.AfterFunc(delay, func() { e.fire(alert) })
	e.mu.Unlock()

	e.events.Emit(events.NewEvent(events.AlertArmed, ref.Conversation).
		WithAlert(alert.ID).
		WithPayload(ref.SenderHandle))

	return alert.ID, nil
}

// CancelConversation resolves every armed alert in the conversation as
// answered. A single team reply clears all outstanding countdowns for
// that chat, not just the chronologically closest one. Idempotent: a
// conversation with nothing armed is a no-op. Only alerts registered at
// the moment the registry lock is held are affected; an arm that lands
// afterwards is untouched.
//
// Returns the number of alerts cancelled.
func (e *Engine) CancelConversation(conversation int64) int {
	e.mu.Lock()

	var won []*PendingAlert
	for id, alert := range e.alerts[conversation] {
		if alert.tryCancel() {
			alert.timer.Stop()
			delete(e.alerts[conversation], id)
			won = append(won, alert)
		}
	}
	if len(e.alerts[conversation]) == 0 {
		delete(e.alerts, conversation)
	}
	e.cancelled += len(won)
	e.mu.Unlock()

	for _, alert := range won {
		e.events.Emit(events.NewEvent(events.AlertCancelled, conversation).WithAlert(alert.ID))
		e.resolved.Done()
	}

	return len(won)
}

// fire runs on timer expiry. The CAS decides the race against
// cancellation: if the cancel path already won, this is a no-op. Once
// fired, a late cancellation can no longer undo the escalation.
func (e *Engine) fire(alert *PendingAlert) {
	if !alert.tryFire() {
		return
	}
	defer e.resolved.Done()

	conv := alert.Ref.Conversation

	e.mu.Lock()
	delete(e.alerts[conv], alert.ID)
	if len(e.alerts[conv]) == 0 {
		delete(e.alerts, conv)
	}
	e.fired++
	e.mu.Unlock()

	e.events.Emit(events.NewEvent(events.AlertFired, conv).
		WithAlert(alert.ID).
		WithPayload(alert.Ref.SenderHandle))

	destination, err := e.config.Destination()
	if err != nil {
		log.Printf("ERROR: cannot read alert destination, message from chat %d unescalated: %v", conv, err)
		e.events.Emit(events.NewEvent(events.AlertUnescalated, conv).WithAlert(alert.ID).WithError(err))
		return
	}
	if destination == 0 {
		log.Printf("WARN: no alert destination configured, message from chat %d unescalated", conv)
		e.events.Emit(events.NewEvent(events.AlertUnescalated, conv).WithAlert(alert.ID))
		return
	}

	err = e.escalator.Escalate(e.escalateCtx, escalate.Escalation{
		Destination:  destination,
		Conversation: conv,
		GroupTitle:   alert.Ref.GroupTitle,
		SenderID:     alert.Ref.SenderID,
		SenderHandle: alert.Ref.SenderHandle,
		MessageID:    alert.Ref.MessageID,
		Text:         alert.Ref.Text,
	})
	if err != nil {
		// Best-effort delivery: the alert is already in its terminal
		// state, so a failed send is a lost notification, not a retry.
		log.Printf("ERROR: escalation delivery failed for chat %d: %v", conv, err)
		e.events.Emit(events.NewEvent(events.AlertDeliveryFailed, conv).WithAlert(alert.ID).WithError(err))
	}
}

// Stats is a point-in-time view of engine counters
type Stats struct {
	// Armed maps conversation id to its armed-alert count
	Armed map[int64]int

	// ArmedTotal is the number of alerts currently armed
	ArmedTotal int

	// Fired counts alerts that escalated since startup
	Fired int

	// Cancelled counts alerts resolved by team replies since startup
	Cancelled int
}

// Stats returns current engine counters
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Stats{
		Armed:     make(map[int64]int, len(e.alerts)),
		Fired:     e.fired,
		Cancelled: e.cancelled,
	}
	for conv, alerts := range e.alerts {
		stats.Armed[conv] = len(alerts)
		stats.ArmedTotal += len(alerts)
	}
	return stats
}

// AlertView is a read-only projection of an armed alert
type AlertView struct {
	ID           string
	Conversation int64
	GroupTitle   string
	SenderHandle string
	ArmedAt      time.Time
	Deadline     time.Time
}

// List returns a copy of all currently armed alerts
func (e *Engine) List() []AlertView {
	e.mu.Lock()
	defer e.mu.Unlock()

	var views []AlertView
	for _, alerts := range e.alerts {
		for _, a := range alerts {
			views = append(views, AlertView{
				ID:           a.ID,
				Conversation: a.Ref.Conversation,
				GroupTitle:   a.Ref.GroupTitle,
				SenderHandle: a.Ref.SenderHandle,
				ArmedAt:      a.ArmedAt,
				Deadline:     a.Deadline,
			})
		}
	}
	return views
}

// Shutdown cancels all armed alerts, then waits for in-flight fires to
// finish their escalations. If the context expires first, remaining
// escalations are aborted and an error is returned.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	var won []*PendingAlert
	for conv, alerts := range e.alerts {
		for id, alert := range alerts {
			if alert.tryCancel() {
				alert.timer.Stop()
				delete(alerts, id)
				won = append(won, alert)
			}
		}
		if len(alerts) == 0 {
			delete(e.alerts, conv)
		}
	}
	e.cancelled += len(won)
	e.mu.Unlock()

	for range won {
		e.resolved.Done()
	}

	done := make(chan struct{})
	go func() {
		e.resolved.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		e.escalateCancel()
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
