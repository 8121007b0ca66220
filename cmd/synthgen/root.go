// Command synthgen is a thin cobra CLI over internal/reader,
// internal/orchestrator, and internal/writer. It owns flag parsing, DSN
// handling, and TTY-aware progress output; all generation semantics live
// in the internal packages.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsynth/dbsynth/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "synthgen",
	Short: "Generate relational-schema-aware synthetic data",
	Long: `synthgen introspects a live database schema and generates rows that respect
its primary keys, foreign keys, unique constraints, and CHECK expressions,
in dependency order. The seed fixes every generated value except minted
UUIDs and dates/timestamps, which are offsets from the current time.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.BuildInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
