package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dbsynth/dbsynth/internal/config"
	"github.com/dbsynth/dbsynth/internal/writer"
)

var (
	prevDialect    string
	prevDSN        string
	prevDatabase   string
	prevConfigPath string
	prevSeed       int64
	prevDebug      bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate rows without writing them, and show the planned table order and row counts",
	Long: `preview introspects the schema, runs the full generation pipeline, and
reports the topological table order and row counts it would insert —
without opening a write transaction. Pass --debug to additionally dump the
generated rows via a pretty-printed value tree.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&prevDialect, "dialect", "", "Database dialect: mysql, postgres, or sqlite (required)")
	previewCmd.Flags().StringVar(&prevDSN, "dsn", "", "Database connection string (required)")
	previewCmd.Flags().StringVar(&prevDatabase, "database", "", "Database/schema name (required for mysql; postgres defaults to public)")
	previewCmd.Flags().StringVar(&prevConfigPath, "config", "", "Path to a GenerationConfig YAML file")
	previewCmd.Flags().Int64Var(&prevSeed, "seed", 1, "Deterministic generation seed")
	previewCmd.Flags().BoolVar(&prevDebug, "debug", false, "Dump generated rows via a pretty-printed value tree")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	prevDialect = resolveString(cmd, "dialect", prevDialect, "DBSYNTH_DIALECT", "")
	prevDSN = resolveString(cmd, "dsn", prevDSN, "DBSYNTH_DSN", "")
	prevDatabase = resolveString(cmd, "database", prevDatabase, "DBSYNTH_DATABASE", "")

	if prevDialect == "" || prevDSN == "" {
		return fmt.Errorf("--dialect and --dsn are required")
	}

	cfg, err := config.Load(prevConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, schemaReader, _, err := openDialect(prevDialect, prevDSN, prevDatabase)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	result, err := generateFromLiveSchema(ctx, schemaReader, cfg, uint64(prevSeed))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tTABLE\tROWS")
	for i, name := range result.Order {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, name, len(result.RowsByTable[name].Rows))
	}
	fmt.Fprintf(tw, "-\tpending updates\t%d\n", len(result.PendingUpdates))
	tw.Flush()

	if prevDebug {
		writer.Dump(result)
	}
	return nil
}
