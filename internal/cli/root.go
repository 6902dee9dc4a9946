// Package cli implements the plantbot command tree.
//
// Every command resolves its configuration the same way: DefaultConfig,
// then PLANTBOT_* environment variables, then the persistent flags below
// when they are set explicitly.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/HendryAvila/plantbot/internal/config"
)

// globalOptions holds the persistent flags shared by all commands.
type globalOptions struct {
	dataDir       string
	storage       string
	historyDriver string
	postgresDSN   string
	samples       int
	trees         int
	seed          uint64
	maxDepth      int
	asyncRetrain  bool
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "plantbot",
		Short: "Plant-protein formulation lab with a texture-score model",
		Long: `plantbot guides you through a plant-based dairy formulation, predicts its
texture score (0-100) with a random forest trained on synthetic data, and keeps
a lab notebook of every result.

Run it as an MCP server for AI clients (serve) or use it directly from the
terminal (chat, score, ingredients, history).`,
		SilenceUsage: true,
	}

	def := config.DefaultConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&opts.dataDir, "data-dir", def.DataDir, "Directory for local documents and the SQLite history")
	pf.StringVar(&opts.storage, "storage", def.StorageDriver, "Document storage: fs, s3 or memory")
	pf.StringVar(&opts.historyDriver, "history", def.HistoryDriver, "History backend: json, sqlite or postgres")
	pf.StringVar(&opts.postgresDSN, "postgres-dsn", "", "Postgres connection string for --history postgres")
	pf.IntVar(&opts.samples, "samples", def.SampleCount, "Synthetic training rows")
	pf.IntVar(&opts.trees, "trees", def.Trees, "Trees in the forest")
	pf.Uint64Var(&opts.seed, "seed", def.Seed, "Training seed")
	pf.IntVar(&opts.maxDepth, "max-depth", def.MaxDepth, "Maximum tree depth (0 = unlimited)")
	pf.BoolVar(&opts.asyncRetrain, "async-retrain", def.AsyncRetrain, "Retrain in the background after ingredient changes")

	root.AddCommand(NewServeCmd(opts))
	root.AddCommand(NewChatCmd(opts))
	root.AddCommand(NewScoreCmd(opts))
	root.AddCommand(NewIngredientsCmd(opts))
	root.AddCommand(NewHistoryCmd(opts))
	root.AddCommand(NewVersionCmd())
	return root
}

// loadConfig applies explicitly set flags over the environment.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if flags.Changed("storage") {
		cfg.StorageDriver = o.storage
	}
	if flags.Changed("history") {
		cfg.HistoryDriver = o.historyDriver
	}
	if flags.Changed("postgres-dsn") {
		cfg.PostgresDSN = o.postgresDSN
	}
	if flags.Changed("samples") {
		cfg.SampleCount = o.samples
	}
	if flags.Changed("trees") {
		cfg.Trees = o.trees
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = o.maxDepth
	}
	if flags.Changed("async-retrain") {
		cfg.AsyncRetrain = o.asyncRetrain
	}
	return cfg, cfg.Validate()
}
