package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/plantbot/internal/elicit"
	"github.com/HendryAvila/plantbot/internal/model"
	"github.com/HendryAvila/plantbot/internal/server"
)

// NewScoreCmd creates the 'score' command: one prediction, not archived.
func NewScoreCmd(opts *globalOptions) *cobra.Command {
	var f model.Features
	var source string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Predict the texture score of one formulation",
		Example: `  plantbot score --source pea --conc 12 --fat 3 --ph 6.8 --stab 0.4
  plantbot score --source lupin --whc 3 --sol 40 --conc 10 --fat 2 --ph 6 --stab 0.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			app, cleanup, err := server.Open(cmd.Context(), cfg, nil)
			defer cleanup()
			if err != nil {
				return err
			}

			table, err := app.Lab.Ingredients(cmd.Context())
			if err != nil {
				return err
			}
			name, props, known := table.Lookup(source)
			if !cmd.Flags().Changed("whc") || !cmd.Flags().Changed("sol") {
				if !known {
					return fmt.Errorf("unknown source %q: pass --whc and --sol", source)
				}
				if !cmd.Flags().Changed("whc") {
					f.WHC = props.WHC
				}
				if !cmd.Flags().Changed("sol") {
					f.Sol = props.Solubility
				}
			}

			pred, err := app.Lab.Score(f, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %.2f / 100 (%s)\n", name, pred.Score, elicit.TierFor(pred.Score))
			p := elicit.ProfileFor(pred.Score, f.Stab, f.Conc)
			fmt.Fprintf(out, "Texture %.1f  Stability %.1f  Cost %.1f  Nutrition %.1f\n",
				p.Texture, p.Stability, p.Cost, p.Nutrition)
			if pred.UnknownSource {
				fmt.Fprintf(out, "Note: %s is not in the serving model.\n", name)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&source, "source", "", "Protein source")
	fl.Float64Var(&f.Conc, "conc", 0, "Protein concentration (%)")
	fl.Float64Var(&f.Fat, "fat", 0, "Fat content (%)")
	fl.Float64Var(&f.PH, "ph", 0, "Target pH")
	fl.Float64Var(&f.Stab, "stab", 0, "Stabilizer dosage (%)")
	fl.Float64Var(&f.WHC, "whc", 0, "Override water holding capacity")
	fl.Float64Var(&f.Sol, "sol", 0, "Override solubility (%)")
	for _, name := range []string{"source", "conc", "fat", "ph", "stab"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
