package writer

import (
	"github.com/k0kubun/pp/v3"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// Dump pretty-prints a GenerationResult to stdout for preview --debug use,
// the same pp.Println style sqldef uses to inspect a parsed AST before
// acting on it. Each table shows its row count and at most its first three
// rows, followed by the number of pending updates.
func Dump(result *schema.GenerationResult) {
	for _, name := range result.Order {
		tr := result.RowsByTable[name]
		pp.Println(tr.Table.Name, len(tr.Rows), "rows")
		for i, row := range tr.Rows {
			if i >= 3 {
				pp.Println("...")
				break
			}
			snapshot := make(map[string]string, len(row.Columns()))
			for _, col := range row.Columns() {
				v, _ := row.Get(col)
				snapshot[col] = v.String()
			}
			pp.Println(snapshot)
		}
	}
	if len(result.PendingUpdates) > 0 {
		pp.Println(len(result.PendingUpdates), "pending updates")
	}
}
