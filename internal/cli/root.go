package cli

import (
	"fmt"

	"labgraph/internal/config"
	"labgraph/internal/logger"
	"labgraph/internal/pipeline"
	"labgraph/internal/storage"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the labgraph command. cfg comes from the
// environment; flags override parts of it.
func NewRootCommand(cfg config.Config) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "labgraph [stage...]",
		Short: "Turn lab worklists into chemical, action and link tables and Neo4j load statements",
		Long: `labgraph reads process and characterization worklists, writes one set of
chemical, action and link CSVs per sample, and emits LOAD CSV statements
for importing them into Neo4j.

Stages: data, features, graph. "test" runs all three on the configured
test data. Stages always run in that order.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.InitLogger(verbose, cfg.LogFormat)
			if verbose {
				logger.Logger.Debug().Msg("verbose logging enabled")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := pipeline.ParseStages(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sink, err := storage.Open(ctx, cfg.StoreDSN)
			if err != nil {
				return err
			}
			if sink != nil {
				defer sink.Close()
			}
			res, err := pipeline.New(cfg, sink).Run(ctx, stages)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s\n", res.RunID)
			for _, s := range res.Samples {
				fmt.Fprintf(out, "  %s: %s %s %s\n", s.Sample, s.ChemFile, s.ActionFile, s.LinkFile)
			}
			if res.CypherFile != "" {
				fmt.Fprintf(out, "  %d statements -> %s\n", res.Statements, res.CypherFile)
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.Flags().StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for the CSV and cypher outputs")
	cmd.Flags().StringVar(&cfg.DataDir, "data", cfg.DataDir, "Directory holding the worklists and characterization folders")
	cmd.Flags().StringVar(&cfg.StoreDSN, "store", cfg.StoreDSN, "Also save tables to sqlite://<path> or a postgres:// URL")
	cmd.Flags().StringSliceVar(&cfg.Samples, "sample", cfg.Samples, "Only build these samples (repeatable)")
	cmd.Flags().StringVar(&cfg.ImportFolder, "import-folder", cfg.ImportFolder, "Folder prefix inside the Neo4j import directory")
	return cmd
}
