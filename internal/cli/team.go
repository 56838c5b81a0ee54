package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vigilbot/vigil/internal/roster"
)

// NewTeamCmd creates the team command group for offline roster edits.
// The running watchdog picks changes up on its next snapshot, so no
// restart is needed.
func NewTeamCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage the team roster",
		Long: `Team edits the roster of members whose replies resolve pending alerts.
Members are identified by @handle or numeric user id.`,
	}

	cmd.AddCommand(newTeamAddCmd(app))
	cmd.AddCommand(newTeamRemoveCmd(app))
	cmd.AddCommand(newTeamListCmd(app))

	return cmd
}

func newTeamAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <@handle|user-id> ...",
		Short: "Add team members",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := app.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, arg := range args {
				userID, handle := memberRef(arg)
				if err := store.AddMember(userID, handle); err != nil {
					return err
				}
			}

			return printTeam(cmd.OutOrStdout(), store)
		},
	}
}

func newTeamRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <@handle|user-id> ...",
		Aliases: []string{"rm"},
		Short:   "Remove team members",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := app.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, arg := range args {
				userID, handle := memberRef(arg)
				removed, err := store.RemoveMember(userID, handle)
				if err != nil {
					return err
				}
				if removed == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is not on the team\n", arg)
				}
			}

			return printTeam(cmd.OutOrStdout(), store)
		},
	}
}

func newTeamListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List team members",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := app.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			return printTeam(cmd.OutOrStdout(), store)
		},
	}
}

// memberRef interprets an argument as a numeric user id or a handle
func memberRef(arg string) (int64, string) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 0 {
		return id, ""
	}
	return 0, arg
}

func printTeam(w io.Writer, store *roster.Store) error {
	members, err := store.ListMembers()
	if err != nil {
		return err
	}

	if len(members) == 0 {
		fmt.Fprintln(w, "Team is empty")
		return nil
	}

	fmt.Fprintf(w, "Team (%d):\n", len(members))
	for _, m := range members {
		fmt.Fprintf(w, "  %s\n", formatTeamEntry(TeamEntry{UserID: m.UserID, Handle: m.Handle}))
	}
	return nil
}
