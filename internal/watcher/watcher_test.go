package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vigilbot/vigil/internal/config"
	"github.com/vigilbot/vigil/internal/engine"
	"github.com/vigilbot/vigil/internal/escalate"
	"github.com/vigilbot/vigil/internal/events"
	"github.com/vigilbot/vigil/internal/roster"
	"github.com/vigilbot/vigil/internal/telegram"
)

// fakeTransport feeds scripted update batches to the watcher and records
// outbound messages. Once the script is exhausted, GetUpdates blocks like
// a long poll until the context is cancelled.
type fakeTransport struct {
	mu      sync.Mutex
	batches [][]telegram.Update
	sent    []sentMessage
}

type sentMessage struct {
	chatID int64
	text   string
}

func (f *fakeTransport) GetMe(ctx context.Context) (*telegram.User, error) {
	return &telegram.User{ID: 999, IsBot: true, Username: "vigil_bot"}, nil
}

func (f *fakeTransport) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error) {
	f.mu.Lock()
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeTransport) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type recordingEscalator struct {
	mu   sync.Mutex
	seen []escalate.Escalation
}

func (r *recordingEscalator) Escalate(ctx context.Context, esc escalate.Escalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, esc)
	return nil
}

func (r *recordingEscalator) Name() string { return "recording" }

func (r *recordingEscalator) escalations() []escalate.Escalation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]escalate.Escalation(nil), r.seen...)
}

type fixture struct {
	watcher   *Watcher
	store     *roster.Store
	transport *fakeTransport
	escalator *recordingEscalator

	cancel context.CancelFunc
	done   chan error
}

// newFixture builds a watcher over a real temp-file store and a
// recording escalator. alertDelay is the config default; tests that need
// a different effective delay store one via the roster.
func newFixture(t *testing.T, alertDelay string, batches [][]telegram.Update) *fixture {
	t.Helper()

	store, err := roster.Open(filepath.Join(t.TempDir(), "vigil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := events.NewBus(256)
	t.Cleanup(func() { bus.Close() })

	esc := &recordingEscalator{}
	eng := engine.New(esc, store, bus)

	transport := &fakeTransport{batches: batches}

	cfg := &config.Config{
		AlertDelay:  alertDelay,
		PollTimeout: "10ms",
	}

	w, err := New(cfg, store, eng, transport, bus)
	require.NoError(t, err)

	return &fixture{
		watcher:   w,
		store:     store,
		transport: transport,
		escalator: esc,
	}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan error, 1)
	go func() { f.done <- f.watcher.Run(ctx) }()

	t.Cleanup(func() { f.stop(t) })
}

func (f *fixture) stop(t *testing.T) {
	t.Helper()

	f.cancel()
	select {
	case err := <-f.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func groupMessage(updateID, chatID, senderID int64, username, text string) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			MessageID: updateID * 10,
			From:      &telegram.User{ID: senderID, Username: username},
			Chat:      telegram.Chat{ID: chatID, Type: "supergroup", Title: "Ops"},
			Text:      text,
		},
	}
}

func TestWatcher_NonTeamMessageEscalates(t *testing.T) {
	f := newFixture(t, "20ms", [][]telegram.Update{
		{groupMessage(1, 100, 42, "bob", "anyone around?")},
	})
	require.NoError(t, f.store.SetDestination(-500))
	require.NoError(t, f.store.AddMember(7, "alice"))

	f.start(t)

	require.Eventually(t, func() bool {
		return len(f.escalator.escalations()) == 1
	}, 2*time.Second, time.Millisecond)

	got := f.escalator.escalations()[0]
	assert.Equal(t, int64(-500), got.Destination)
	assert.Equal(t, int64(100), got.Conversation)
	assert.Equal(t, "bob", got.SenderHandle)
	assert.Equal(t, "Ops", got.GroupTitle)
	assert.Equal(t, "anyone around?", got.Text)
}

func TestWatcher_TeamReplyCancelsBeforeDeadline(t *testing.T) {
	f := newFixture(t, "30s", [][]telegram.Update{
		{
			groupMessage(1, 100, 42, "bob", "hello?"),
			groupMessage(2, 100, 7, "alice", "on it"),
		},
	})
	require.NoError(t, f.store.SetDestination(-500))
	require.NoError(t, f.store.AddMember(7, "alice"))

	f.start(t)

	require.Eventually(t, func() bool {
		return f.watcher.Engine().Stats().Cancelled == 1
	}, 2*time.Second, time.Millisecond)

	stats := f.watcher.Engine().Stats()
	assert.Equal(t, 0, stats.ArmedTotal)
	assert.Equal(t, 0, stats.Fired)
	assert.Empty(t, f.escalator.escalations())
}

func TestWatcher_TeamReplyInOtherConversationDoesNotCancel(t *testing.T) {
	f := newFixture(t, "20ms", [][]telegram.Update{
		{
			groupMessage(1, 100, 42, "bob", "hello?"),
			groupMessage(2, 200, 7, "alice", "different chat"),
		},
	})
	require.NoError(t, f.store.SetDestination(-500))
	require.NoError(t, f.store.AddMember(7, "alice"))

	f.start(t)

	require.Eventually(t, func() bool {
		return len(f.escalator.escalations()) == 1
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, int64(100), f.escalator.escalations()[0].Conversation)
}

func TestWatcher_SetMainGroupBootstrapsFirstOwner(t *testing.T) {
	f := newFixture(t, "30s", [][]telegram.Update{
		{groupMessage(1, -500, 7, "alice", "/setmaingroup")},
	})

	f.start(t)

	require.Eventually(t, func() bool {
		return len(f.transport.sentMessages()) == 1
	}, 2*time.Second, time.Millisecond)

	destination, err := f.store.Destination()
	require.NoError(t, err)
	assert.Equal(t, int64(-500), destination)

	isOwner, err := f.store.IsOwner(7)
	require.NoError(t, err)
	assert.True(t, isOwner, "first /setmaingroup issuer should become owner")

	assert.Contains(t, f.transport.sentMessages()[0].text, "✅")
}

func TestWatcher_NonOwnerCommandDenied(t *testing.T) {
	f := newFixture(t, "30s", [][]telegram.Update{
		{groupMessage(1, 100, 42, "bob", "/addteam @mallory")},
	})
	require.NoError(t, f.store.AddOwner(7))

	f.start(t)

	require.Eventually(t, func() bool {
		return len(f.transport.sentMessages()) == 1
	}, 2*time.Second, time.Millisecond)

	assert.Contains(t, f.transport.sentMessages()[0].text, "⛔")

	members, err := f.store.ListMembers()
	require.NoError(t, err)
	assert.Empty(t, members, "denied command must not touch the roster")
}

func TestWatcher_TeamCommands(t *testing.T) {
	f := newFixture(t, "30s", [][]telegram.Update{
		{
			groupMessage(1, 100, 7, "alice", "/addteam @Bob 12345"),
			groupMessage(2, 100, 75, "alice", "/listteam@vigil_bot"),
			groupMessage(3, 100, 7, "alice", "/delteam @bob"),
		},
	})
	require.NoError(t, f.store.AddOwner(7))
	require.NoError(t, f.store.AddOwner(75))

	f.start(t)

	require.Eventually(t, func() bool {
		return len(f.transport.sentMessages()) == 3
	}, 2*time.Second, time.Millisecond)

	sent := f.transport.sentMessages()
	assert.Contains(t, sent[1].text, "@bob", "handles normalize to lowercase")
	assert.Contains(t, sent[1].text, "12345")
	assert.NotContains(t, sent[2].text, "@bob")

	members, err := f.store.ListMembers()
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(12345), members[0].UserID)
}

func TestWatcher_SetDelayCommand(t *testing.T) {
	f := newFixture(t, "30s", [][]telegram.Update{
		{
			groupMessage(1, 100, 7, "alice", "/setdelay 90s"),
			groupMessage(2, 100, 7, "alice", "/setdelay soon"),
		},
	})
	require.NoError(t, f.store.AddOwner(7))

	f.start(t)

	require.Eventually(t, func() bool {
		return len(f.transport.sentMessages()) == 2
	}, 2*time.Second, time.Millisecond)

	delay, err := f.store.Delay(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, delay, "valid delay is stored")

	sent := f.transport.sentMessages()
	assert.Contains(t, sent[0].text, "90s")
	assert.Contains(t, sent[1].text, "cannot parse", "bad delay is rejected, not stored")
}

func TestWatcher_StatusCommand(t *testing.T) {
	f := newFixture(t, "30s", [][]telegram.Update{
		{groupMessage(1, 100, 7, "alice", "/status")},
	})
	require.NoError(t, f.store.AddOwner(7))

	f.start(t)

	require.Eventually(t, func() bool {
		return len(f.transport.sentMessages()) == 1
	}, 2*time.Second, time.Millisecond)

	status := f.transport.sentMessages()[0].text
	assert.Contains(t, status, "Destination: unset")
	assert.Contains(t, status, "Armed alerts: 0")
}

func TestWatcher_UnknownCommandIgnored(t *testing.T) {
	f := newFixture(t, "30s", [][]telegram.Update{
		{
			groupMessage(1, 100, 7, "alice", "/weather@other_bot tomorrow"),
			groupMessage(2, 100, 7, "alice", "/status"),
		},
	})
	require.NoError(t, f.store.AddOwner(7))

	f.start(t)

	// Only /status replies; the foreign command produces no output at all.
	require.Eventually(t, func() bool {
		return len(f.transport.sentMessages()) == 1
	}, 2*time.Second, time.Millisecond)
	assert.Contains(t, f.transport.sentMessages()[0].text, "vigil status")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		name string
		args []string
	}{
		{"/addteam @a @b", "addteam", []string{"@a", "@b"}},
		{"/listteam@vigil_bot", "listteam", nil},
		{"/SETDELAY 90s", "setdelay", []string{"90s"}},
		{"/status", "status", nil},
	}

	for _, tt := range tests {
		name, args := parseCommand(tt.text)
		assert.Equal(t, tt.name, name, tt.text)
		assert.Equal(t, tt.args, args, tt.text)
	}
}

func TestParseDelay(t *testing.T) {
	delay, err := parseDelay("90s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, delay)

	delay, err = parseDelay("120")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, delay, "bare numbers read as seconds")

	_, err = parseDelay("-5s")
	require.Error(t, err)

	_, err = parseDelay("soon")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "soon"))
}
