package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dbsynth/dbsynth/internal/config"
	"github.com/dbsynth/dbsynth/internal/orchestrator"
	"github.com/dbsynth/dbsynth/internal/reader"
	"github.com/dbsynth/dbsynth/internal/schema"
	"github.com/dbsynth/dbsynth/internal/writer"
)

var (
	genDialect    string
	genDSN        string
	genDatabase   string
	genConfigPath string
	genSeed       int64
	genOut        string
	genExecute    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Introspect a schema and build an INSERT/UPDATE script for generated rows",
	Long: `generate introspects a live schema, runs the generation pipeline, and
renders a single SQL script (session framing, batched INSERTs, deferred
UPDATEs, closing framing) to stdout or --out. Pass --execute to also run
that script against the connection used for introspection — a CLI
convenience layered on top of the script, not something the core does on
its own.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genDialect, "dialect", "", "Database dialect: mysql, postgres, or sqlite (required)")
	generateCmd.Flags().StringVar(&genDSN, "dsn", "", "Database connection string (required)")
	generateCmd.Flags().StringVar(&genDatabase, "database", "", "Database/schema name (required for mysql; postgres defaults to public)")
	generateCmd.Flags().StringVar(&genConfigPath, "config", "", "Path to a GenerationConfig YAML file")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 1, "Deterministic generation seed")
	generateCmd.Flags().StringVar(&genOut, "out", "", "Write the generated SQL script here instead of stdout")
	generateCmd.Flags().BoolVar(&genExecute, "execute", false, "Also run the generated script against the connection (CLI convenience, not part of the core)")
	rootCmd.AddCommand(generateCmd)
}

var isTTY = sync.OnceValue(func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
})

const barWidth = 30

// printProgress renders an inline progress line, same spirit as the
// teacher's seeder.printProgress (full bar on TTY, one line otherwise —
// here there's no running total mid-table, so each table gets one line
// once its rows are generated rather than a live-updating bar).
func printProgress(name string, rowCount int) {
	if !isTTY() {
		fmt.Fprintf(os.Stderr, "[%s] %d rows generated\n", name, rowCount)
		return
	}
	bar := strings.Repeat("█", barWidth)
	fmt.Fprintf(os.Stderr, "[%s] %s %d rows\n", name, bar, rowCount)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()

	genDialect = resolveString(cmd, "dialect", genDialect, "DBSYNTH_DIALECT", "")
	genDSN = resolveString(cmd, "dsn", genDSN, "DBSYNTH_DSN", "")
	genDatabase = resolveString(cmd, "database", genDatabase, "DBSYNTH_DATABASE", "")

	if genDialect == "" || genDSN == "" {
		return fmt.Errorf("--dialect and --dsn are required")
	}

	cfg, err := config.Load(genConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, schemaReader, dialectWriter, err := openDialect(genDialect, genDSN, genDatabase)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	result, err := generateFromLiveSchema(ctx, schemaReader, cfg, uint64(genSeed))
	if err != nil {
		return err
	}

	script, err := dialectWriter.Build(result, result.EffectiveDeferred)
	if err != nil {
		return fmt.Errorf("building SQL script: %w", err)
	}

	switch {
	case genOut != "":
		if err := os.WriteFile(genOut, []byte(script), 0o644); err != nil {
			return fmt.Errorf("writing script to %s: %w", genOut, err)
		}
	case !genExecute:
		fmt.Println(script)
	}

	if genExecute {
		if err := executeScript(ctx, db, script); err != nil {
			return fmt.Errorf("executing generated script: %w", err)
		}
	}

	totalRows := 0
	for _, name := range result.Order {
		totalRows += len(result.RowsByTable[name].Rows)
	}
	fmt.Fprintf(os.Stderr, "\nGenerated %d rows across %d tables in %s\n",
		totalRows, len(result.Order), time.Since(start).Round(time.Millisecond))
	return nil
}

// executeScript runs a generated script statement by statement against a
// live connection. This is a CLI convenience layered on top of
// DialectWriter's output — the DialectWriter contract itself only builds
// the script string; executing generated SQL is explicitly out of scope
// for the core.
func executeScript(ctx context.Context, db *sql.DB, script string) error {
	for _, stmt := range splitStatements(script) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing statement %q: %w", stmt, err)
		}
	}
	return nil
}

// splitStatements splits a script into individual statements on
// semicolon-newline boundaries. This is intentionally naive: every
// statement buildBatchInsert/buildUpdateStatement render ends in ";\n",
// and no literal value ever contains that exact sequence.
func splitStatements(script string) []string {
	return strings.Split(script, ";\n")
}

// generateFromLiveSchema introspects via r and runs the core pipeline,
// printing one progress line per table as it completes.
func generateFromLiveSchema(ctx context.Context, r reader.SchemaReader, cfg *config.Config, seed uint64) (*schema.GenerationResult, error) {
	desc, err := r.ReadSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Introspected %d tables\n", len(desc.Tables))

	result, err := orchestrator.Run(ctx, desc, cfg, seed, printProgress)
	if err != nil {
		return nil, fmt.Errorf("generating data: %w", err)
	}
	return result, nil
}

func openDialect(dialect, dsn, database string) (*sql.DB, reader.SchemaReader, writer.DialectWriter, error) {
	switch dialect {
	case "mysql":
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to mysql: %w", err)
		}
		if database == "" {
			db.Close()
			return nil, nil, nil, fmt.Errorf("--database is required for mysql")
		}
		return db, reader.NewMySQLReader(db, database), writer.NewMySQLWriter(), nil
	case "postgres":
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if database == "" {
			database = "public"
		}
		return db, reader.NewPostgresReader(db, database), writer.NewPostgresWriter(), nil
	case "sqlite":
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		return db, reader.NewSQLiteReader(db), writer.NewSQLiteWriter(), nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown dialect %q (want mysql, postgres, or sqlite)", dialect)
	}
}
