package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vigilbot/vigil/internal/escalate"
	"github.com/vigilbot/vigil/internal/events"
)

// recordingEscalator captures every delivered escalation
type recordingEscalator struct {
	mu    sync.Mutex
	calls []escalate.Escalation
	err   error
	delay time.Duration
}

func (r *recordingEscalator) Escalate(ctx context.Context, e escalate.Escalation) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	r.calls = append(r.calls, e)
	r.mu.Unlock()
	return r.err
}

func (r *recordingEscalator) Name() string { return "recording" }

func (r *recordingEscalator) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingEscalator) call(i int) escalate.Escalation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[i]
}

// staticConfig is a ConfigProvider with a fixed destination
type staticConfig struct {
	dest int64
	err  error
}

func (c staticConfig) Destination() (int64, error) { return c.dest, c.err }

// eventCollector records emitted event types per alert
type eventCollector struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *eventCollector) handler() events.Handler {
	return func(e events.Event) {
		c.mu.Lock()
		c.events = append(c.events, e)
		c.mu.Unlock()
	}
}

func (c *eventCollector) typesFor(alertID string) []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	var types []events.EventType
	for _, e := range c.events {
		if e.Alert == alertID {
			types = append(types, e.Type)
		}
	}
	return types
}

func newTestEngine(t *testing.T, esc escalate.Escalator, cfg ConfigProvider) (*Engine, *eventCollector) {
	t.Helper()
	bus := events.NewBus(1000)
	collector := &eventCollector{}
	bus.Subscribe(collector.handler())
	t.Cleanup(func() { bus.Close() })

	eng := New(esc, cfg, bus)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = eng.Shutdown(ctx)
	})
	return eng, collector
}

func ref(conv, msgID, sender int64, handle, text string) MessageRef {
	return MessageRef{
		Conversation: conv,
		MessageID:    msgID,
		SenderID:     sender,
		SenderHandle: handle,
		GroupTitle:   "Customers",
		Text:         text,
	}
}

func TestEngine_FiresAfterDelay(t *testing.T) {
	esc := &recordingEscalator{}
	eng, collector := newTestEngine(t, esc, staticConfig{dest: -900})

	id, err := eng.Arm(ref(-100, 7, 42, "alice", "anyone there?"), 30*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return esc.callCount() == 1 },
		time.Second, 5*time.Millisecond)

	got := esc.call(0)
	assert.Equal(t, int64(-900), got.Destination)
	assert.Equal(t, int64(-100), got.Conversation)
	assert.Equal(t, int64(42), got.SenderID)
	assert.Equal(t, "alice", got.SenderHandle)
	assert.Equal(t, "anyone there?", got.Text)

	stats := eng.Stats()
	assert.Equal(t, 1, stats.Fired)
	assert.Zero(t, stats.ArmedTotal, "fired alert leaves the registry")

	require.Eventually(t, func() bool {
		types := collector.typesFor(id)
		return len(types) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []events.EventType{events.AlertArmed, events.AlertFired}, collector.typesFor(id))
}

func TestEngine_TeamReplyCancelsBeforeDeadline(t *testing.T) {
	esc := &recordingEscalator{}
	eng, collector := newTestEngine(t, esc, staticConfig{dest: -900})

	id, err := eng.Arm(ref(-100, 7, 42, "customer", "hello?"), 80*time.Millisecond)
	require.NoError(t, err)

	cancelled := eng.CancelConversation(-100)
	assert.Equal(t, 1, cancelled)

	// Wait past the original deadline: no escalation may happen
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, esc.callCount())

	stats := eng.Stats()
	assert.Equal(t, 1, stats.Cancelled)
	assert.Zero(t, stats.Fired)

	require.Eventually(t, func() bool { return len(collector.typesFor(id)) == 2 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, []events.EventType{events.AlertArmed, events.AlertCancelled}, collector.typesFor(id))
}

func TestEngine_IndependentAlertsEachEscalate(t *testing.T) {
	esc := &recordingEscalator{}
	eng, _ := newTestEngine(t, esc, staticConfig{dest: -900})

	_, err := eng.Arm(ref(-100, 1, 42, "first", "q1"), 20*time.Millisecond)
	require.NoError(t, err)
	_, err = eng.Arm(ref(-100, 2, 43, "second", "q2"), 20*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return esc.callCount() == 2 },
		time.Second, 5*time.Millisecond)

	senders := map[string]bool{esc.call(0).SenderHandle: true, esc.call(1).SenderHandle: true}
	assert.True(t, senders["first"] && senders["second"],
		"each unanswered message escalates with its own sender")
}

func TestEngine_BlanketCancelIsPerConversation(t *testing.T) {
	esc := &recordingEscalator{}
	eng, _ := newTestEngine(t, esc, staticConfig{dest: -900})

	for i := int64(1); i <= 3; i++ {
		_, err := eng.Arm(ref(-100, i, 40+i, fmt.Sprintf("sender%d", i), "q"), 80*time.Millisecond)
		require.NoError(t, err)
	}
	_, err := eng.Arm(ref(-200, 9, 50, "other", "question"), 40*time.Millisecond)
	require.NoError(t, err)

	// One team reply in -100 clears all three of its alerts
	assert.Equal(t, 3, eng.CancelConversation(-100))

	// The unrelated conversation still fires
	require.Eventually(t, func() bool { return esc.callCount() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(-200), esc.call(0).Conversation)

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 1, esc.callCount(), "cancelled alerts never fire")
}

func TestEngine_CancelIsIdempotent(t *testing.T) {
	esc := &recordingEscalator{}
	eng, _ := newTestEngine(t, esc, staticConfig{dest: -900})

	assert.Zero(t, eng.CancelConversation(-100), "nothing armed is a no-op")

	_, err := eng.Arm(ref(-100, 1, 42, "x", "q"), 50*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 1, eng.CancelConversation(-100))
	assert.Zero(t, eng.CancelConversation(-100), "second cancel finds nothing")
}

func TestEngine_CancelDoesNotAffectLaterArms(t *testing.T) {
	esc := &recordingEscalator{}
	eng, _ := newTestEngine(t, esc, staticConfig{dest: -900})

	eng.CancelConversation(-100)

	// An arm landing after a cancel runs its full countdown
	_, err := eng.Arm(ref(-100, 1, 42, "late", "q"), 20*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return esc.callCount() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestEngine_ExactlyOnceUnderRacingCancel(t *testing.T) {
	esc := &recordingEscalator{}
	eng, _ := newTestEngine(t, esc, staticConfig{dest: -900})

	const total = 200
	for i := 0; i < total; i++ {
		_, err := eng.Arm(ref(-100, int64(i), int64(1000+i), "s", "q"), time.Millisecond)
		require.NoError(t, err)
	}

	// Race cancellations against the expiring timers
	var cancelled int
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				n := eng.CancelConversation(-100)
				mu.Lock()
				cancelled += n
				mu.Unlock()
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	// Let remaining timers resolve
	require.Eventually(t, func() bool {
		return eng.Stats().ArmedTotal == 0
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		stats := eng.Stats()
		return stats.Fired+stats.Cancelled == total && esc.callCount() == stats.Fired
	}, 2*time.Second, 5*time.Millisecond)

	stats := eng.Stats()
	assert.Equal(t, total, stats.Fired+stats.Cancelled,
		"every alert reaches exactly one terminal state")
	assert.Equal(t, cancelled, stats.Cancelled)
	assert.Equal(t, stats.Fired, esc.callCount(),
		"escalations match fired alerts one-to-one")
}

func TestEngine_UnsetDestinationIsLoggedNoop(t *testing.T) {
	esc := &recordingEscalator{}
	eng, collector := newTestEngine(t, esc, staticConfig{dest: 0})

	id, err := eng.Arm(ref(-100, 1, 42, "x", "q"), 20*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		types := collector.typesFor(id)
		return len(types) == 3
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t,
		[]events.EventType{events.AlertArmed, events.AlertFired, events.AlertUnescalated},
		collector.typesFor(id))
	assert.Zero(t, esc.callCount())

	// The engine keeps working afterwards
	_, err = eng.Arm(ref(-100, 2, 42, "x", "q2"), 20*time.Millisecond)
	require.NoError(t, err)
}

func TestEngine_ConfigErrorIsLoggedNoop(t *testing.T) {
	esc := &recordingEscalator{}
	eng, collector := newTestEngine(t, esc, staticConfig{err: errors.New("db closed")})

	id, err := eng.Arm(ref(-100, 1, 42, "x", "q"), 20*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		types := collector.typesFor(id)
		return len(types) == 3 && types[2] == events.AlertUnescalated
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, esc.callCount())
}

func TestEngine_DeliveryFailureIsNotRetried(t *testing.T) {
	esc := &recordingEscalator{err: errors.New("network down")}
	eng, collector := newTestEngine(t, esc, staticConfig{dest: -900})

	id, err := eng.Arm(ref(-100, 1, 42, "x", "q"), 20*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		types := collector.typesFor(id)
		return len(types) == 3 && types[2] == events.AlertDeliveryFailed
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, esc.callCount(), "failed delivery is not retried")

	stats := eng.Stats()
	assert.Equal(t, 1, stats.Fired, "the alert stays in fired state")
}

func TestEngine_ArmRejectsBadDelay(t *testing.T) {
	eng, _ := newTestEngine(t, &recordingEscalator{}, staticConfig{dest: -900})

	_, err := eng.Arm(ref(-100, 1, 42, "x", "q"), 0)
	assert.Error(t, err)

	_, err = eng.Arm(ref(-100, 1, 42, "x", "q"), -time.Second)
	assert.Error(t, err)
}

func TestEngine_List(t *testing.T) {
	eng, _ := newTestEngine(t, &recordingEscalator{}, staticConfig{dest: -900})

	_, err := eng.Arm(ref(-100, 1, 42, "alice", "q"), time.Minute)
	require.NoError(t, err)

	views := eng.List()
	require.Len(t, views, 1)
	assert.Equal(t, int64(-100), views[0].Conversation)
	assert.Equal(t, "alice", views[0].SenderHandle)
	assert.Equal(t, "Customers", views[0].GroupTitle)
	assert.True(t, views[0].Deadline.After(views[0].ArmedAt))
}

func TestEngine_ShutdownCancelsArmedAlerts(t *testing.T) {
	esc := &recordingEscalator{}
	bus := events.NewBus(100)
	defer bus.Close()
	eng := New(esc, staticConfig{dest: -900}, bus)

	_, err := eng.Arm(ref(-100, 1, 42, "x", "q"), time.Minute)
	require.NoError(t, err)
	_, err = eng.Arm(ref(-200, 2, 43, "y", "q"), time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, eng.Shutdown(ctx))

	assert.Zero(t, eng.Stats().ArmedTotal)
	assert.Zero(t, esc.callCount())

	_, err = eng.Arm(ref(-100, 3, 42, "x", "q"), time.Second)
	assert.Error(t, err, "arming after shutdown fails")
}

func TestEngine_ShutdownWaitsForInflightEscalation(t *testing.T) {
	esc := &recordingEscalator{delay: 50 * time.Millisecond}
	bus := events.NewBus(100)
	defer bus.Close()
	eng := New(esc, staticConfig{dest: -900}, bus)

	_, err := eng.Arm(ref(-100, 1, 42, "x", "q"), 5*time.Millisecond)
	require.NoError(t, err)

	// Wait for the fire transition; the escalation itself is still running
	require.Eventually(t, func() bool { return eng.Stats().Fired == 1 },
		time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, eng.Shutdown(ctx))

	assert.Equal(t, 1, esc.callCount(), "in-flight escalation completed before shutdown returned")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "armed", StateArmed.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.Equal(t, "fired", StateFired.String())
	assert.Equal(t, "unknown", State(9).String())
}
