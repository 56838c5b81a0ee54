// Package cli wires the watchdog's commands: the long-running watch
// process plus offline roster and status management over the shared
// database.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vigilbot/vigil/internal/config"
)

// VersionInfo holds build-time version metadata
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App represents the CLI application with all wired dependencies
type App struct {
	rootCmd *cobra.Command

	versionInfo VersionInfo

	// configDir overrides where .vigil.yaml is looked up
	configDir string

	// verbose enables event payloads in log output
	verbose bool
}

// New creates a new CLI application
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion sets the version strings for the version command
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "vigil",
		Short: "Group conversation watchdog",
		Long: `Vigil watches group conversations and escalates messages that no
team member has answered within the configured delay.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().StringVarP(&a.configDir, "config", "c", "",
		"Directory containing .vigil.yaml (default: working directory)")
	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Verbose output")

	a.rootCmd.AddCommand(NewRunCmd(a))
	a.rootCmd.AddCommand(NewStatusCmd(a))
	a.rootCmd.AddCommand(NewTeamCmd(a))
	a.rootCmd.AddCommand(NewVersionCmd(a))
}

// loadConfig loads configuration from the --config directory, falling
// back to the working directory
func (a *App) loadConfig() (*config.Config, error) {
	dir := a.configDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
