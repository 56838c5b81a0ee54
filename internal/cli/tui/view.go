package tui

import (
	"fmt"
	"strings"
	"time"
)

// countdownWarn is the remaining time below which a countdown turns red
const countdownWarn = 15 * time.Second

// logPaneLines is how many recent event-log lines the TUI shows
const logPaneLines = 8

// View implements tea.Model
func (m *Model) View() string {
	if m.Done || m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(m.renderAlerts())

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")

	b.WriteString(m.renderLog())
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title line with bot identity and uptime
func (m *Model) renderHeader() string {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	timer := fmt.Sprintf("[%s]", formatDuration(elapsed))

	bot := "connecting..."
	if m.BotUsername != "" {
		bot = "@" + m.BotUsername
	}

	destination := "destination unset"
	if m.Destination != 0 {
		destination = fmt.Sprintf("destination %d", m.Destination)
	}

	return fmt.Sprintf("%s %s  %s  %s",
		IconWatching,
		m.Styles.Title.Render("Vigil Watchdog"),
		m.Styles.Bot.Render(bot+"  "+destination),
		m.Styles.Timer.Render(timer),
	)
}

// renderAlerts renders the armed-alert table, soonest deadline first
func (m *Model) renderAlerts() string {
	if len(m.Alerts) == 0 {
		return "  No armed alerts\n\n"
	}

	var b strings.Builder
	now := time.Now()

	for _, alert := range m.Alerts {
		chat := alert.GroupTitle
		if chat == "" {
			chat = fmt.Sprintf("chat %d", alert.Conversation)
		}

		sender := alert.SenderHandle
		if sender == "" {
			sender = "(unknown)"
		} else {
			sender = "@" + sender
		}

		age := now.Sub(alert.ArmedAt).Round(time.Second)
		remaining := alert.Deadline.Sub(now).Round(time.Second)
		if remaining < 0 {
			remaining = 0
		}

		countdown := m.Styles.CountdownOK
		if remaining < countdownWarn {
			countdown = m.Styles.CountdownSoon
		}

		fmt.Fprintf(&b, "  %s %s  %s  waiting %s  %s\n",
			m.Styles.StatusArmed.Render(IconArmed),
			m.Styles.AlertChat.Render(chat),
			m.Styles.AlertSender.Render(sender),
			age,
			countdown.Render(fmt.Sprintf("fires in %s", remaining)),
		)
	}

	b.WriteString("\n")
	return b.String()
}

// renderStatusLine renders the summary counters
func (m *Model) renderStatusLine() string {
	armed := m.Styles.StatusArmed.Render(fmt.Sprintf("%d armed", m.Stats.ArmedTotal))
	fired := m.Styles.StatusFired.Render(fmt.Sprintf("%d fired", m.Stats.Fired))
	cancelled := m.Styles.StatusCancelled.Render(fmt.Sprintf("%d answered", m.Stats.Cancelled))

	return fmt.Sprintf("  %s | %s | %s", armed, fired, cancelled)
}

// renderLog renders the tail of the event log
func (m *Model) renderLog() string {
	if len(m.LogLines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.Styles.LogTitle.Render("  Recent events"))
	b.WriteString("\n")

	lines := m.LogLines
	if len(lines) > logPaneLines {
		lines = lines[len(lines)-logPaneLines:]
	}
	for _, line := range lines {
		b.WriteString(m.Styles.LogLine.Render("  " + line))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFooter renders the help text
func (m *Model) renderFooter() string {
	key := m.Styles.FooterKey.Render("q")
	return m.Styles.Footer.Render(fmt.Sprintf("  Press %s to quit", key))
}

// formatDuration formats a duration as HH:MM:SS
func formatDuration(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
