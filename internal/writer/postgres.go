package writer

import (
	"strings"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// PostgresWriter renders a GenerationResult into a Postgres-flavored SQL
// script: a single transaction, with all deferrable constraints deferred
// to COMMIT time when effectiveDeferred is set, so a row that references a
// parent inserted later in the same script (a cycle resolved in deferred
// mode) does not abort the load.
type PostgresWriter struct{}

func NewPostgresWriter() *PostgresWriter { return &PostgresWriter{} }

func (w *PostgresWriter) Build(result *schema.GenerationResult, effectiveDeferred bool) (string, error) {
	var sb strings.Builder

	sb.WriteString("BEGIN;\n")
	if effectiveDeferred {
		sb.WriteString("SET CONSTRAINTS ALL DEFERRED;\n")
	}

	for _, name := range result.Order {
		tr := result.RowsByTable[name]
		cols := columnUnion(tr.Table, tr.Rows)
		if len(cols) == 0 {
			continue
		}
		for _, batch := range batches(tr.Rows) {
			sb.WriteString(buildBatchInsert(pgQuoteIdent, pgQuoteString, tr.Table.Name, cols, batch))
			sb.WriteString("\n")
		}
	}

	for _, u := range result.PendingUpdates {
		sb.WriteString(buildUpdateStatement(pgQuoteIdent, pgQuoteString, u))
		sb.WriteString("\n")
	}

	sb.WriteString("COMMIT;\n")
	return sb.String(), nil
}

func pgQuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func pgQuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
