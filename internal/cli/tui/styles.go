package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the TUI
type Styles struct {
	// Header styling
	Title lipgloss.Style
	Timer lipgloss.Style
	Bot   lipgloss.Style

	// Alert rows
	AlertChat     lipgloss.Style
	AlertSender   lipgloss.Style
	CountdownOK   lipgloss.Style
	CountdownSoon lipgloss.Style

	// Status counts
	StatusArmed     lipgloss.Style
	StatusFired     lipgloss.Style
	StatusCancelled lipgloss.Style

	// Footer styling
	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	// Log area styling
	LogTitle lipgloss.Style
	LogLine  lipgloss.Style
}

// DefaultStyles returns the default TUI styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Bot:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		AlertChat:     lipgloss.NewStyle().Bold(true),
		AlertSender:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		CountdownOK:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		CountdownSoon: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		StatusArmed:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		StatusFired:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		StatusCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),

		LogTitle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true),
		LogLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Icons used in the TUI
const (
	IconArmed     = "●"
	IconFired     = "🔔"
	IconCancelled = "✓"
	IconWatching  = "🐶"
)
