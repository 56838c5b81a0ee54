package tui

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case TickMsg:
		m.refresh()
		return m, tickCmd()

	case DoneMsg:
		m.Done = true
		return m, tea.Quit

	case QuitMsg:
		m.Quitting = true
		return m, tea.Quit

	case StartedMsg:
		m.BotUsername = msg.Username
		m.refresh()

	case DestinationMsg:
		m.Destination = msg.ChatID

	case LogMsg:
		m.LogLines = append(m.LogLines, msg.Line)
		if m.LogLimit > 0 && len(m.LogLines) > m.LogLimit {
			m.LogLines = m.LogLines[len(m.LogLines)-m.LogLimit:]
		}
		m.refresh()
	}

	return m, nil
}

// refresh re-reads armed alerts and counters from the engine.
// Alerts sort by deadline so the next one to fire is on top.
func (m *Model) refresh() {
	if m.Source == nil {
		return
	}

	m.Alerts = m.Source.List()
	m.Stats = m.Source.Stats()

	sort.Slice(m.Alerts, func(i, j int) bool {
		return m.Alerts[i].Deadline.Before(m.Alerts[j].Deadline)
	})
}
