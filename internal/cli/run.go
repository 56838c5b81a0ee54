package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vigilbot/vigil/internal/cli/tui"
	"github.com/vigilbot/vigil/internal/engine"
	"github.com/vigilbot/vigil/internal/escalate"
	"github.com/vigilbot/vigil/internal/events"
	"github.com/vigilbot/vigil/internal/roster"
	"github.com/vigilbot/vigil/internal/telegram"
	"github.com/vigilbot/vigil/internal/watcher"
)

// RunOptions holds flags for the run command
type RunOptions struct {
	NoTUI bool // Disable TUI even when stdout is a TTY
	JSON  bool // Force JSON event output
}

// NewRunCmd creates the run command
func NewRunCmd(app *App) *cobra.Command {
	var opts RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the watchdog",
		Long: `Run starts the long-lived watchdog process: it polls the chat service
for updates, arms a countdown for every unanswered non-team message, and
escalates countdowns that expire.

On a terminal it shows a live dashboard of armed alerts; otherwise it
emits events as JSON lines on stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunWatchdog(context.Background(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoTUI, "no-tui", false, "Disable interactive TUI (use log output)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Emit events as JSON lines on stdout")

	return cmd
}

// RunWatchdog wires the full watchdog stack and runs it until a signal
// or an unrecoverable startup error.
func (a *App) RunWatchdog(ctx context.Context, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := NewSignalHandler(cancel)
	handler.OnShutdown(func() {
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
	})
	handler.Start()
	defer handler.Stop()

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if cfg.BotToken == "" {
		return fmt.Errorf("bot token is required (set VIGIL_BOT_TOKEN)")
	}

	store, err := roster.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open roster store: %w", err)
	}
	defer store.Close()

	client := telegram.NewClient(cfg.BotToken)

	esc, err := escalate.FromConfig(escalate.Config{
		Backends:   cfg.Escalation.Backends,
		WebhookURL: cfg.Escalation.WebhookURL,
		Transport:  client,
	})
	if err != nil {
		return fmt.Errorf("failed to create escalator: %w", err)
	}

	eventBus := events.NewBus(1000)
	defer eventBus.Close()

	eng := engine.New(esc, store, eventBus)

	w, err := watcher.New(cfg, store, eng, client, eventBus)
	if err != nil {
		return err
	}

	useTUI := !opts.NoTUI && !opts.JSON && term.IsTerminal(int(os.Stdout.Fd()))

	switch {
	case useTUI:
		model := tui.NewModel(eng)
		program := tea.NewProgram(model, tea.WithAltScreen())
		bridge := tui.NewBridge(program)
		eventBus.Subscribe(bridge.Handler())

		// Keep stdlib log output from tearing the rendered screen
		logWriter := tui.NewLogWriter(program)
		log.SetOutput(logWriter)
		defer func() {
			log.SetOutput(os.Stderr)
			logWriter.Flush()
		}()

		go func() {
			if _, err := program.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			}
			// Quitting the dashboard stops the watchdog too
			cancel()
		}()
		defer bridge.SendDone()

	case events.IsJSONMode(opts.JSON):
		emitter := events.NewJSONEmitter(os.Stdout)
		eventBus.Subscribe(emitter.Handler())

	default:
		eventBus.Subscribe(events.LogHandler(events.LogConfig{
			IncludePayload: a.verbose,
		}))
	}

	return w.Run(ctx)
}
