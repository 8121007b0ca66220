package writer

import (
	"strings"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// SQLiteWriter renders a GenerationResult into a SQLite-flavored SQL
// script, deferring foreign-key enforcement until COMMIT when
// effectiveDeferred is set (PRAGMA defer_foreign_keys only takes effect
// within an active transaction, hence the explicit BEGIN).
type SQLiteWriter struct{}

func NewSQLiteWriter() *SQLiteWriter { return &SQLiteWriter{} }

func (w *SQLiteWriter) Build(result *schema.GenerationResult, effectiveDeferred bool) (string, error) {
	var sb strings.Builder

	sb.WriteString("BEGIN;\n")
	if effectiveDeferred {
		sb.WriteString("PRAGMA defer_foreign_keys=1;\n")
	}

	for _, name := range result.Order {
		tr := result.RowsByTable[name]
		cols := columnUnion(tr.Table, tr.Rows)
		if len(cols) == 0 {
			continue
		}
		for _, batch := range batches(tr.Rows) {
			sb.WriteString(buildBatchInsert(sqliteQuoteIdent, sqliteQuoteString, tr.Table.Name, cols, batch))
			sb.WriteString("\n")
		}
	}

	for _, u := range result.PendingUpdates {
		sb.WriteString(buildUpdateStatement(sqliteQuoteIdent, sqliteQuoteString, u))
		sb.WriteString("\n")
	}

	sb.WriteString("COMMIT;\n")
	return sb.String(), nil
}

func sqliteQuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqliteQuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
