// Package fkresolve implements the ForeignKeyResolver: given every table's
// already-generated rows (with FK columns left null by internal/rowgen),
// it fills in parent references in topological order, synthesizing
// correlated FK sets for 1:1 unique foreign keys and falling back to
// plain-uniform parent selection otherwise.
package fkresolve

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/dbsynth/dbsynth/internal/schema"
)

const uniqueFKAttemptMultiplier = 100

// Resolver fills FK columns across a topologically-ordered run.
type Resolver struct {
	order    []string
	tables   map[string]*schema.Table
	rows     map[string][]*schema.Row
	deferred bool
	rand     *rand.Rand

	inserted map[string]bool
	fkQueues map[string][]*schema.Row // key: tableName + "\x00" + fkName

	pending []schema.PendingUpdate
}

// New builds a Resolver. order is the topological table order; rows maps
// each table name to its already-generated (FK-columns-null) rows.
func New(order []string, tables map[string]*schema.Table, rows map[string][]*schema.Row, deferred bool, r *rand.Rand) *Resolver {
	return &Resolver{
		order:    order,
		tables:   tables,
		rows:     rows,
		deferred: deferred,
		rand:     r,
		inserted: make(map[string]bool, len(order)),
		fkQueues: make(map[string][]*schema.Row),
	}
}

// Resolve walks the tables in topological order, filling FK columns on
// every row, and returns the accumulated pending updates.
func (r *Resolver) Resolve() ([]schema.PendingUpdate, error) {
	for _, name := range r.order {
		table := r.tables[name]
		if table == nil {
			continue
		}
		if err := r.resolveTable(table); err != nil {
			return nil, err
		}
		r.inserted[name] = true
	}
	return r.pending, nil
}

func (r *Resolver) resolveTable(table *schema.Table) error {
	rows := r.rows[table.Name]
	if len(rows) == 0 {
		return nil
	}

	nullableFK := make(map[string]bool, len(table.ForeignKeys))
	for _, fk := range table.ForeignKeys {
		nullableFK[fk.Name] = allChildColumnsNullable(table, fk)
	}

	uniqueFKKeys := uniqueKeysOnFKs(table)

	if len(uniqueFKKeys) > 0 {
		r.resolveUniqueFKPath(table, rows, nullableFK)
		return r.resolveRemaining(table, rows, nullableFK)
	}

	return r.resolveStandardPath(table, rows, nullableFK)
}

// uniqueKeysOnFKs returns the set of FK names whose entire child-column set
// is covered by a declared unique key, plus every FK explicitly marked
// uniqueOnFk.
func uniqueKeysOnFKs(table *schema.Table) map[string]bool {
	out := make(map[string]bool)
	for _, fk := range table.ForeignKeys {
		if fk.UniqueOnFK {
			out[fk.Name] = true
			continue
		}
		childSet := make(map[string]bool)
		for _, c := range fk.ChildColumns() {
			childSet[c] = true
		}
		for _, uk := range table.UniqueKeys {
			if sameSet(uk, childSet) {
				out[fk.Name] = true
				break
			}
		}
	}
	return out
}

func sameSet(cols []string, set map[string]bool) bool {
	if len(cols) != len(set) {
		return false
	}
	for _, c := range cols {
		if !set[c] {
			return false
		}
	}
	return true
}

// resolveUniqueFKPath attempts, for each child row, to synthesize a full
// set of FK values across every foreign key of the table such that the
// combination hasn't been used earlier this table. Rows for which no
// candidate combination is found are left for resolveRemaining to handle
// as ordinary (possibly null) FKs.
func (r *Resolver) resolveUniqueFKPath(table *schema.Table, rows []*schema.Row, nullableFK map[string]bool) {
	seenCombos := make(map[string]bool, len(rows))

	for _, row := range rows {
		var candidate map[string]schema.Value
		for attempt := 0; attempt < uniqueFKAttemptMultiplier*len(rows) && attempt < 100_000; attempt++ {
			values := make(map[string]schema.Value)
			ok := true
			for _, fk := range table.ForeignKeys {
				parentRow := r.getParentRowForForeignKey(table.Name, fk, nullableFK[fk.Name])
				if parentRow == nil {
					if !nullableFK[fk.Name] {
						ok = false
						break
					}
					for _, pair := range fk.Columns {
						values[pair.ChildColumn] = schema.Null()
					}
					continue
				}
				for _, pair := range fk.Columns {
					v, _ := parentRow.Get(pair.ParentColumn)
					values[pair.ChildColumn] = v
				}
			}
			if !ok {
				continue
			}
			key := comboKey(values)
			if seenCombos[key] {
				continue
			}
			candidate = values
			seenCombos[key] = true
			break
		}
		if candidate == nil {
			continue
		}
		for col, v := range candidate {
			row.Set(col, v)
		}
	}
}

func comboKey(values map[string]schema.Value) string {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, c := range cols {
		v := values[c]
		if v.IsNull() {
			parts[i] = c + "=NULL"
			continue
		}
		parts[i] = c + "=" + v.String()
	}
	return strings.Join(parts, "|")
}

// resolveRemaining handles rows the unique-FK path left untouched (no
// combination found) or FKs outside the unique-on-FK set, via the standard
// per-row per-FK path.
func (r *Resolver) resolveRemaining(table *schema.Table, rows []*schema.Row, nullableFK map[string]bool) error {
	return r.resolveStandardPath(table, rows, nullableFK)
}

// resolveStandardPath fills every FK not already set (e.g. by the
// unique-FK path, which alreadySet below detects) via
// resolveSingleForeignKey.
func (r *Resolver) resolveStandardPath(table *schema.Table, rows []*schema.Row, nullableFK map[string]bool) error {
	for _, row := range rows {
		for _, fk := range table.ForeignKeys {
			if alreadySet(row, fk) {
				continue
			}
			if err := r.resolveSingleForeignKey(fk, table, row, nullableFK[fk.Name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func alreadySet(row *schema.Row, fk schema.ForeignKey) bool {
	for _, c := range fk.ChildColumns() {
		v, ok := row.Get(c)
		if !ok || v.IsNull() {
			return false
		}
	}
	return true
}

func (r *Resolver) resolveSingleForeignKey(fk schema.ForeignKey, table *schema.Table, row *schema.Row, fkNullable bool) error {
	if _, ok := r.tables[fk.ParentTable]; !ok {
		setNull(row, fk)
		return nil
	}

	parentRow := r.getParentRowForForeignKey(table.Name, fk, fkNullable)
	if parentRow == nil {
		if fk.UniqueOnFK && !fkNullable {
			return fmt.Errorf("fkresolve: not enough rows for 1:1 FK %s.%s -> %s", table.Name, fk.Name, fk.ParentTable)
		}
		setNull(row, fk)
		return nil
	}

	if r.inserted[fk.ParentTable] || r.deferred {
		copyReferenced(row, parentRow, fk)
		return nil
	}

	// Cycle situation: the parent table hasn't been fully inserted yet and
	// we're not in deferred mode.
	if !fkNullable {
		return fmt.Errorf("fkresolve: cycle with non-nullable FK %s.%s -> %s", table.Name, fk.Name, fk.ParentTable)
	}
	setNull(row, fk)
	r.emitPendingUpdate(table, row, fk, parentRow)
	return nil
}

func setNull(row *schema.Row, fk schema.ForeignKey) {
	for _, c := range fk.ChildColumns() {
		row.Set(c, schema.Null())
	}
}

func copyReferenced(row, parentRow *schema.Row, fk schema.ForeignKey) {
	for _, pair := range fk.Columns {
		v, _ := parentRow.Get(pair.ParentColumn)
		row.Set(pair.ChildColumn, v)
	}
}

func (r *Resolver) emitPendingUpdate(table *schema.Table, row *schema.Row, fk schema.ForeignKey, parentRow *schema.Row) {
	fkValues := make(map[string]schema.Value, len(fk.Columns))
	for _, pair := range fk.Columns {
		v, _ := parentRow.Get(pair.ParentColumn)
		fkValues[pair.ChildColumn] = v
	}
	pkValues := make(map[string]schema.Value, len(table.PrimaryKey))
	for _, pk := range table.PrimaryKey {
		v, _ := row.Get(pk)
		pkValues[pk] = v
	}
	r.pending = append(r.pending, schema.PendingUpdate{
		Table:    table.Name,
		FKValues: fkValues,
		PKValues: pkValues,
	})
}

// getParentRowForForeignKey implements the §4.5 parent-selection rule:
// shuffled 1:1 queue for uniqueOnFk FKs, uniform-random pick otherwise.
func (r *Resolver) getParentRowForForeignKey(childTable string, fk schema.ForeignKey, fkNullable bool) *schema.Row {
	parentRows := r.rows[fk.ParentTable]
	if len(parentRows) == 0 {
		return nil
	}

	if !fk.UniqueOnFK {
		return parentRows[r.rand.IntN(len(parentRows))]
	}

	key := childTable + "\x00" + fk.Name
	queue, ok := r.fkQueues[key]
	if !ok {
		queue = append([]*schema.Row(nil), parentRows...)
		r.rand.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
	}
	if len(queue) == 0 {
		return nil
	}
	next := queue[0]
	r.fkQueues[key] = queue[1:]
	return next
}

func allChildColumnsNullable(table *schema.Table, fk schema.ForeignKey) bool {
	for _, c := range fk.ChildColumns() {
		col, ok := table.Column(c)
		if !ok || !col.Nullable {
			return false
		}
	}
	return true
}
