package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vigilbot/vigil/internal/engine"
)

// AlertSource is the live view of the engine the TUI refreshes from on
// every tick. *engine.Engine satisfies it.
type AlertSource interface {
	List() []engine.AlertView
	Stats() engine.Stats
}

// Model is the bubbletea model for the TUI
type Model struct {
	// Configuration
	Source AlertSource
	Styles Styles

	// State
	BotUsername string
	Destination int64
	Alerts      []engine.AlertView
	Stats       engine.Stats
	StartTime   time.Time
	LogLines    []string
	LogLimit    int
	Width       int
	Height      int

	// Control
	Quitting bool
	Done     bool
}

// NewModel creates a new TUI model reading live state from the source
func NewModel(source AlertSource) *Model {
	return &Model{
		Source:    source,
		Styles:    DefaultStyles(),
		StartTime: time.Now(),
		LogLimit:  200,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
	)
}

// TickMsg is sent every second to refresh countdowns
type TickMsg time.Time

// tickCmd returns a command that sends TickMsg every second
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// DoneMsg signals the TUI should exit
type DoneMsg struct{}

// QuitMsg signals the user requested quit (q or Ctrl+C)
type QuitMsg struct{}

// StartedMsg indicates the watcher identified itself to the chat service
type StartedMsg struct {
	Username string
}

// DestinationMsg indicates the alert destination changed
type DestinationMsg struct {
	ChatID int64
}

// LogMsg appends a line to the event log pane
type LogMsg struct {
	Line string
}
