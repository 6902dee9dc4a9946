package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/plantbot/internal/history"
)

// NewHistoryCmd creates the 'history' command group over the lab notebook.
func NewHistoryCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Manage archived formulations",
	}
	cmd.AddCommand(
		newHistoryListCmd(opts),
		newHistoryRenameCmd(opts),
		newHistoryDeleteCmd(opts),
		newHistoryPinCmd(opts),
	)
	return cmd
}

// withHistory opens the configured history store for the duration of fn.
func withHistory(cmd *cobra.Command, opts *globalOptions, fn func(history.Store) error) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	st, cleanup, err := openStores(cmd.Context(), cfg)
	defer cleanup()
	if err != nil {
		return err
	}
	return fn(st.history)
}

func newHistoryListCmd(opts *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List formulations, pinned first, then newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(store history.Store) error {
				records, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				sorted := history.Sorted(records)

				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(sorted)
				}
				if len(sorted) == 0 {
					fmt.Fprintln(out, "No formulations yet. Run 'plantbot chat' and type New.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tPIN\tNAME\tSOURCE\tSCORE\tTIMESTAMP")
				for _, r := range sorted {
					pin := ""
					if r.Pinned {
						pin = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\n", r.ID, pin, r.Name, r.Source, r.Score, r.Timestamp)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func newHistoryRenameCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a formulation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(store history.Store) error {
				if err := store.Rename(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s.\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a formulation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(store history.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryPinCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Toggle the pin on a formulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(store history.Store) error {
				pinned, err := store.TogglePin(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				state := "Unpinned"
				if pinned {
					state = "Pinned"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s.\n", state, args[0])
				return nil
			})
		},
	}
}
