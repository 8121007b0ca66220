package writer

import (
	"strings"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// MySQLWriter renders a GenerationResult into a MySQL-flavored SQL script:
// FOREIGN_KEY_CHECKS/UNIQUE_CHECKS session framing around batched
// multi-row INSERTs, same idiom as the teacher's seeder.SeedAll, adapted
// here to build a script string instead of executing it.
type MySQLWriter struct{}

func NewMySQLWriter() *MySQLWriter { return &MySQLWriter{} }

func (w *MySQLWriter) Build(result *schema.GenerationResult, effectiveDeferred bool) (string, error) {
	var sb strings.Builder

	if effectiveDeferred {
		sb.WriteString("SET FOREIGN_KEY_CHECKS=0;\n")
		sb.WriteString("SET UNIQUE_CHECKS=0;\n")
	}

	for _, name := range result.Order {
		tr := result.RowsByTable[name]
		cols := columnUnion(tr.Table, tr.Rows)
		if len(cols) == 0 {
			continue
		}
		for _, batch := range batches(tr.Rows) {
			sb.WriteString(buildBatchInsert(mysqlQuoteIdent, mysqlQuoteString, tr.Table.Name, cols, batch))
			sb.WriteString("\n")
		}
	}

	for _, u := range result.PendingUpdates {
		sb.WriteString(buildUpdateStatement(mysqlQuoteIdent, mysqlQuoteString, u))
		sb.WriteString("\n")
	}

	if effectiveDeferred {
		sb.WriteString("SET UNIQUE_CHECKS=1;\n")
		sb.WriteString("SET FOREIGN_KEY_CHECKS=1;\n")
	}

	return sb.String(), nil
}

func mysqlQuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// mysqlQuoteString escapes a string literal MySQL's default sql_mode way:
// backslashes are doubled and single quotes are backslash-escaped.
func mysqlQuoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return "'" + s + "'"
}
