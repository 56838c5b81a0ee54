package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigilbot/vigil/internal/config"
	"github.com/vigilbot/vigil/internal/roster"
)

// StatusOptions holds flags for the status command
type StatusOptions struct {
	JSON bool // Output as JSON instead of formatted text
}

// StatusDisplay is the status command's output shape
type StatusDisplay struct {
	Destination int64       `json:"destination"`
	Delay       string      `json:"delay"`
	Owners      int         `json:"owners"`
	Team        []TeamEntry `json:"team"`
}

// TeamEntry is one roster member in status output
type TeamEntry struct {
	UserID  int64     `json:"user_id,omitempty"`
	Handle  string    `json:"handle,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// NewStatusCmd creates the status command
func NewStatusCmd(app *App) *cobra.Command {
	var opts StatusOptions

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show watchdog configuration and roster",
		Long: `Display the stored configuration: alert destination, escalation delay,
and the team roster. Reads the same database the running watchdog uses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ShowStatus(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON instead of formatted text")

	return cmd
}

// ShowStatus displays stored watchdog state
func (a *App) ShowStatus(w io.Writer, opts StatusOptions) error {
	store, cfg, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	defaultDelay, err := cfg.AlertDelayDuration()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	display, err := buildStatusDisplay(store, defaultDelay)
	if err != nil {
		return err
	}

	if opts.JSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(display)
	}

	fmt.Fprint(w, formatStatusOutput(display))
	return nil
}

// openStore loads config and opens the roster database it points at
func (a *App) openStore() (*roster.Store, *config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := roster.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open roster store: %w", err)
	}

	return store, cfg, nil
}

func buildStatusDisplay(store *roster.Store, defaultDelay time.Duration) (*StatusDisplay, error) {
	destination, err := store.Destination()
	if err != nil {
		return nil, err
	}

	delay, err := store.Delay(defaultDelay)
	if err != nil {
		return nil, err
	}

	owners, err := store.OwnerCount()
	if err != nil {
		return nil, err
	}

	members, err := store.ListMembers()
	if err != nil {
		return nil, err
	}

	display := &StatusDisplay{
		Destination: destination,
		Delay:       delay.String(),
		Owners:      owners,
		Team:        make([]TeamEntry, 0, len(members)),
	}
	for _, m := range members {
		display.Team = append(display.Team, TeamEntry{
			UserID:  m.UserID,
			Handle:  m.Handle,
			AddedAt: m.AddedAt,
		})
	}

	return display, nil
}

// formatStatusOutput produces the full status display
func formatStatusOutput(display *StatusDisplay) string {
	var result strings.Builder

	separator := strings.Repeat("═", 48)
	result.WriteString(separator + "\n")
	result.WriteString("Vigil Watchdog Status\n")
	result.WriteString(separator + "\n")

	destination := "unset"
	if display.Destination != 0 {
		destination = strconv.FormatInt(display.Destination, 10)
	}
	fmt.Fprintf(&result, " Destination: %s\n", destination)
	fmt.Fprintf(&result, " Delay:       %s\n", display.Delay)
	fmt.Fprintf(&result, " Owners:      %d\n", display.Owners)

	result.WriteString(" Team:\n")
	if len(display.Team) == 0 {
		result.WriteString("   (empty)\n")
	}
	for _, entry := range display.Team {
		fmt.Fprintf(&result, "   %s\n", formatTeamEntry(entry))
	}

	result.WriteString(separator + "\n")
	return result.String()
}

func formatTeamEntry(entry TeamEntry) string {
	switch {
	case entry.Handle != "" && entry.UserID != 0:
		return fmt.Sprintf("@%s (id %d)", entry.Handle, entry.UserID)
	case entry.Handle != "":
		return "@" + entry.Handle
	default:
		return fmt.Sprintf("id %d", entry.UserID)
	}
}
