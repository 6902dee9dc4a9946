package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/plantbot/internal/ingredients"
)

// NewIngredientsCmd creates the 'ingredients' command group.
func NewIngredientsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ingredients",
		Aliases: []string{"ing"},
		Short:   "List or add protein sources",
	}
	cmd.AddCommand(newIngredientsListCmd(opts), newIngredientsAddCmd(opts))
	return cmd
}

func newIngredientsListCmd(opts *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List known protein sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			st, cleanup, err := openStores(cmd.Context(), cfg)
			defer cleanup()
			if err != nil {
				return err
			}
			table, err := st.ingredients.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(table)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tWHC\tSOLUBILITY\tNOTES")
			for _, name := range table.Names() {
				p := table[name]
				fmt.Fprintf(tw, "%s\t%.2f\t%.1f\t%s\n", name, p.WHC, p.Solubility, p.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func newIngredientsAddCmd(opts *globalOptions) *cobra.Command {
	var p ingredients.Property

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a protein source",
		Long: `Store a protein source with its water holding capacity and solubility.
The model picks it up the next time it trains (at startup, or immediately
when added through chat or the MCP server).`,
		Example: `  plantbot ingredients add rice --whc 2 --sol 55`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := p.Validate(); err != nil {
				return err
			}
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			st, cleanup, err := openStores(cmd.Context(), cfg)
			defer cleanup()
			if err != nil {
				return err
			}
			name := ingredients.Normalize(args[0])
			if err := st.ingredients.Save(cmd.Context(), name, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", name)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&p.WHC, "whc", 0, "Water holding capacity (g/g, >= 0)")
	fl.Float64Var(&p.Solubility, "sol", 0, "Solubility (%, 0-100)")
	fl.StringVar(&p.Description, "desc", ingredients.CustomDescription, "Short note")
	_ = cmd.MarkFlagRequired("whc")
	_ = cmd.MarkFlagRequired("sol")
	return cmd
}
