// Package writer holds demo DialectWriter implementations: pure renderers
// that take a GenerationResult and produce a single SQL script string —
// session opening framing, batched multi-row INSERTs, the deferred UPDATE
// statements the ForeignKeyResolver accumulated for nullable FK cycles,
// then closing framing. Grounded in the teacher's internal/seeder (batched
// INSERT construction, FOREIGN_KEY_CHECKS session framing), generalized
// across dialects and taught a new trick the teacher never needed:
// rendering the DEFAULT sentinel as a bare keyword. Executing the returned
// script against a live connection is a caller concern, not this
// package's: see spec.md's Non-goal on executing generated SQL.
package writer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// maxBatchTuples caps how many row tuples one INSERT statement carries, to
// keep each inlined-literal statement well under server statement-size
// limits such as MySQL's default max_allowed_packet.
const maxBatchTuples = 1000

// DialectWriter renders a GenerationResult into a single, dialect-specific
// SQL script. effectiveDeferred is the Orchestrator's computed flag
// (config override or forced by a non-nullable FK cycle); a writer uses it
// to decide whether constraint-deferring framing is worth emitting.
type DialectWriter interface {
	Build(result *schema.GenerationResult, effectiveDeferred bool) (string, error)
}

// cellLiteral renders one Value as a SQL literal ready to splice directly
// into statement text — there are no bound parameters here, since the
// result is a standalone script, not a prepared query. quoteString quotes
// and escapes a string literal using dialect-specific rules.
func cellLiteral(v schema.Value, quoteString func(string) string) string {
	switch v.Kind {
	case schema.KindNull:
		return "NULL"
	case schema.KindDefault:
		return "DEFAULT"
	case schema.KindBool:
		if v.Bool() {
			return "TRUE"
		}
		return "FALSE"
	case schema.KindInt:
		return fmt.Sprintf("%d", v.Int())
	case schema.KindDouble:
		return fmt.Sprintf("%v", v.Double())
	case schema.KindDecimal:
		val, scale := v.Decimal()
		return fmt.Sprintf("%.*f", scale, val)
	case schema.KindString, schema.KindUUID:
		return quoteString(v.String())
	case schema.KindDate:
		return quoteString(v.Time().Format("2006-01-02"))
	case schema.KindTimestamp:
		if v.TZAware() {
			return quoteString(v.Time().Format(time.RFC3339))
		}
		return quoteString(v.Time().Format("2006-01-02 15:04:05"))
	default:
		return "NULL"
	}
}

// batches splits rows into chunks of at most maxBatchTuples.
func batches(rows []*schema.Row) [][]*schema.Row {
	if len(rows) == 0 {
		return nil
	}
	var out [][]*schema.Row
	for start := 0; start < len(rows); start += maxBatchTuples {
		end := start + maxBatchTuples
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

// columnUnion returns the ordered set of columns to insert for rows: the
// table's declared column order, restricted to columns set (to any value,
// null included) on at least one of rows. Row generation sets every column,
// excluded ones to null, so excluded columns are listed and inserted as
// explicit NULLs.
func columnUnion(table *schema.Table, rows []*schema.Row) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for _, col := range row.Columns() {
			present[col] = true
		}
	}
	var cols []string
	for _, c := range table.Columns {
		if present[c.Name] {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// buildBatchInsert renders one "INSERT INTO t (a, b) VALUES (...), (...);"
// statement for a batch of rows, inlining every cell as a literal via
// cellLiteral. quoteIdent quotes one identifier; quoteString quotes one
// string literal, both dialect-specific.
func buildBatchInsert(quoteIdent func(string) string, quoteString func(string) string, tableName string, cols []string, rows []*schema.Row) string {
	quotedCols := make([]string, len(cols))
	for i, c := range cols {
		quotedCols[i] = quoteIdent(c)
	}

	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, len(cols))
		for i, col := range cols {
			v, ok := row.Get(col)
			if !ok {
				v = schema.Null()
			}
			parts[i] = cellLiteral(v, quoteString)
		}
		tuples = append(tuples, "("+strings.Join(parts, ", ")+")")
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s;",
		quoteIdent(tableName), strings.Join(quotedCols, ", "), strings.Join(tuples, ", "))
}

// buildUpdateStatement renders one deferred pending update as a single
// "UPDATE t SET ... WHERE ...;" statement. FKValues/PKValues are maps, so
// their columns are visited in lexicographic order to keep the rendered
// script deterministic for a given seed, per spec §5.
func buildUpdateStatement(quoteIdent func(string) string, quoteString func(string) string, u schema.PendingUpdate) string {
	fkCols := sortedKeys(u.FKValues)
	setParts := make([]string, len(fkCols))
	for i, col := range fkCols {
		setParts[i] = quoteIdent(col) + " = " + cellLiteral(u.FKValues[col], quoteString)
	}

	pkCols := sortedKeys(u.PKValues)
	whereParts := make([]string, len(pkCols))
	for i, col := range pkCols {
		whereParts[i] = quoteIdent(col) + " = " + cellLiteral(u.PKValues[col], quoteString)
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s;",
		quoteIdent(u.Table), strings.Join(setParts, ", "), strings.Join(whereParts, " AND "))
}

func sortedKeys(m map[string]schema.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
