// Package rowgen implements the RowGenerator: given one table, it produces
// up to a target number of rows that satisfy every single- and multi-
// column CHECK constraint it can parse, respecting excluded columns,
// repetition rules, soft-delete columns, and uniqueness on the primary key
// and any "relevant" unique keys (ones not already handled by FK
// resolution).
//
// FK columns (other than ones also in the primary key) are deliberately
// left null here; internal/fkresolve fills them in once every table's rows
// exist.
package rowgen

import (
	"sort"
	"strings"

	"github.com/dbsynth/dbsynth/internal/config"
	"github.com/dbsynth/dbsynth/internal/constraint"
	"github.com/dbsynth/dbsynth/internal/genvalue"
	"github.com/dbsynth/dbsynth/internal/schema"
)

const maxRowAttempts = 100

// RowGenerator produces rows for one table.
type RowGenerator struct {
	table  *schema.Table
	target int

	excludedColumns map[string]bool
	repetitionRules []config.RepetitionRule

	gen *genvalue.Generator

	softDeleteColumns          map[string]bool
	softDeleteUseSchemaDefault bool
	softDeleteValue            string

	parsedByColumn map[string]constraint.Parsed
	fkColumns      map[string]bool
	uniqueKeys     [][]string // "relevant" unique keys only
	multiColumn    []constraint.MultiColumn
}

// New builds a RowGenerator, eagerly parsing every column's CHECK-derived
// constraints and the table's multi-column constraints once.
func New(
	table *schema.Table,
	targetRows int,
	excludedColumns map[string]bool,
	repetitionRules []config.RepetitionRule,
	gen *genvalue.Generator,
	softDeleteColumns map[string]bool,
	softDeleteUseSchemaDefault bool,
	softDeleteValue string,
) *RowGenerator {
	rg := &RowGenerator{
		table:                      table,
		target:                     targetRows,
		excludedColumns:            excludedColumns,
		repetitionRules:            repetitionRules,
		gen:                        gen,
		softDeleteColumns:          softDeleteColumns,
		softDeleteUseSchemaDefault: softDeleteUseSchemaDefault,
		softDeleteValue:            softDeleteValue,
		parsedByColumn:             make(map[string]constraint.Parsed, len(table.Columns)),
		fkColumns:                  make(map[string]bool),
	}

	for _, col := range table.Columns {
		rg.parsedByColumn[col.Name] = constraint.Parse(col.Name, table.CheckExprs, col.Length)
	}
	for _, fk := range table.ForeignKeys {
		for _, c := range fk.ChildColumns() {
			rg.fkColumns[c] = true
		}
	}
	rg.uniqueKeys = relevantUniqueKeys(table, rg.fkColumns)
	rg.multiColumn = constraint.ParseMultiColumn(table.CheckExprs)

	return rg
}

// relevantUniqueKeys filters out unique keys that are fully covered by FK
// columns (the resolver is responsible for those staying unique, via the
// unique-FK synthesis path) or that equal the primary key (already gated).
func relevantUniqueKeys(table *schema.Table, fkColumns map[string]bool) [][]string {
	pkKey := setKey(table.PrimaryKey)
	var out [][]string
	for _, uk := range table.UniqueKeys {
		if setKey(uk) == pkKey {
			continue
		}
		allFK := true
		for _, c := range uk {
			if !fkColumns[c] {
				allFK = false
				break
			}
		}
		if allFK {
			continue
		}
		out = append(out, uk)
	}
	return out
}

func setKey(cols []string) string {
	sorted := append([]string(nil), cols...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Generate runs both phases and returns the rows produced. It never
// returns an error: attempts that exhaust their budget are silently
// dropped per §7's recoverable-locally error class, except for a fatal
// error surfaced from ValueGenerator (e.g. UUID exhaustion), which aborts
// the whole run.
func (rg *RowGenerator) Generate() ([]*schema.Row, error) {
	if len(rg.table.Columns) == 0 {
		return nil, nil
	}

	var rows []*schema.Row
	pkSeen := make(map[string]bool)
	uniqueSeen := make([]map[string]bool, len(rg.uniqueKeys))
	for i := range uniqueSeen {
		uniqueSeen[i] = make(map[string]bool)
	}

	// Phase 1: repetition rules.
	for _, rule := range rg.repetitionRules {
		base := make(map[string]schema.Value, len(rule.FixedValues)+len(rule.RandomConstantColumns))
		for colName, raw := range rule.FixedValues {
			col, ok := rg.table.Column(colName)
			if !ok {
				continue
			}
			base[colName] = rg.gen.ParseToType(raw, col)
		}
		for _, colName := range rule.RandomConstantColumns {
			col, ok := rg.table.Column(colName)
			if !ok {
				continue
			}
			v, err := rg.gen.Generate(col, rg.parsedByColumn[colName], len(rows))
			if err != nil {
				return nil, err
			}
			base[colName] = v
		}

		for i := 0; i < rule.Count; i++ {
			row, err := rg.generateAndValidateRowWithBase(base, pkSeen, uniqueSeen, len(rows), maxRowAttempts)
			if err != nil {
				return nil, err
			}
			if row != nil {
				rows = append(rows, row)
			}
		}
	}

	// Phase 2: fill remaining.
	maxAttempts := rg.target * 100
	attempts := 0
	for len(rows) < rg.target && attempts < maxAttempts {
		attempts++
		row, err := rg.generateAndValidateRowWithBase(nil, pkSeen, uniqueSeen, len(rows), 1)
		if err != nil {
			return nil, err
		}
		if row != nil {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// generateAndValidateRowWithBase attempts up to maxAttempts times to build
// a row consistent with base, multi-column constraints, and every
// uniqueness gate, returning nil (not an error) if every attempt fails.
func (rg *RowGenerator) generateAndValidateRowWithBase(
	base map[string]schema.Value,
	pkSeen map[string]bool,
	uniqueSeen []map[string]bool,
	rowIndex int,
	maxAttempts int,
) (*schema.Row, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		values := make(map[string]schema.Value, len(rg.table.Columns))
		for k, v := range base {
			values[k] = v
		}

		if ok := rg.applyMultiColumnConstraints(values); !ok {
			continue
		}

		if err := rg.generateRemainingColumnValues(values, rowIndex); err != nil {
			return nil, err
		}

		if !rg.reconcileMultiColumnConstraints(values) {
			continue
		}

		if !rg.checkUniqueness(values, pkSeen, uniqueSeen) {
			continue
		}

		return rowFromValues(rg.table, values), nil
	}
	return nil, nil
}

func rowFromValues(table *schema.Table, values map[string]schema.Value) *schema.Row {
	row := schema.NewRow()
	for _, col := range table.Columns {
		if v, ok := values[col.Name]; ok {
			row.Set(col.Name, v)
		}
	}
	return row
}

// applyMultiColumnConstraints picks, for each multi-column constraint, one
// allowed combination compatible with whatever is already in values
// (typically from repetition-rule fixed/random-constant values), and
// copies in the columns not yet present. Returns false if some constraint
// has no compatible combination left.
func (rg *RowGenerator) applyMultiColumnConstraints(values map[string]schema.Value) bool {
	for _, mc := range rg.multiColumn {
		compatible := filterCompatible(mc.AllowedCombinations, values)
		if len(compatible) == 0 {
			return false
		}
		chosen := compatible[rg.gen.Rand.IntN(len(compatible))]
		for col, raw := range chosen {
			if _, ok := values[col]; ok {
				continue
			}
			c, ok := rg.table.Column(col)
			if !ok {
				continue
			}
			values[col] = rg.gen.ParseToType(raw, c)
		}
	}
	return true
}

func filterCompatible(combinations []map[string]string, values map[string]schema.Value) []map[string]string {
	var out []map[string]string
	for _, combo := range combinations {
		if matchesCombo(combo, values) {
			out = append(out, combo)
		}
	}
	return out
}

func matchesCombo(combo map[string]string, values map[string]schema.Value) bool {
	for col, want := range combo {
		v, ok := values[col]
		if !ok {
			continue
		}
		if v.IsNull() {
			if !strings.EqualFold(want, "NULL") {
				return false
			}
			continue
		}
		if v.String() != want {
			return false
		}
	}
	return true
}

func (rg *RowGenerator) generateRemainingColumnValues(values map[string]schema.Value, rowIndex int) error {
	for _, col := range rg.table.Columns {
		if _, ok := values[col.Name]; ok {
			continue
		}
		v, err := rg.generateColumnValue(col, rowIndex)
		if err != nil {
			return err
		}
		values[col.Name] = v
	}
	return nil
}

func (rg *RowGenerator) generateColumnValue(col schema.Column, rowIndex int) (schema.Value, error) {
	switch {
	case rg.excludedColumns[col.Name]:
		return schema.Null(), nil
	case rg.fkColumns[col.Name] && !rg.isPrimaryKeyColumn(col.Name):
		return schema.Null(), nil
	case rg.softDeleteColumns[col.Name]:
		return rg.gen.GenerateSoftDeleteValue(col, rg.softDeleteUseSchemaDefault, rg.softDeleteValue), nil
	default:
		return rg.gen.Generate(col, rg.parsedByColumn[col.Name], rowIndex)
	}
}

func (rg *RowGenerator) isPrimaryKeyColumn(name string) bool {
	for _, pk := range rg.table.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}

// reconcileMultiColumnConstraints re-validates every multi-column
// constraint against the fully-populated row, and for any that no longer
// match, tries to reselect a compatible combination using only the
// constraint's columns already present in values; failing that, it
// overwrites those columns with the constraint's first allowed
// combination. Returns false only if a constraint has no combinations at
// all to fall back on.
func (rg *RowGenerator) reconcileMultiColumnConstraints(values map[string]schema.Value) bool {
	for _, mc := range rg.multiColumn {
		if anyComboMatches(mc.AllowedCombinations, values) {
			continue
		}
		if len(mc.AllowedCombinations) == 0 {
			return false
		}
		compatible := filterCompatible(mc.AllowedCombinations, restrictTo(values, mc.Columns))
		chosen := mc.AllowedCombinations[0]
		if len(compatible) > 0 {
			chosen = compatible[rg.gen.Rand.IntN(len(compatible))]
		}
		for col, raw := range chosen {
			c, ok := rg.table.Column(col)
			if !ok {
				continue
			}
			values[col] = rg.gen.ParseToType(raw, c)
		}
	}
	return true
}

func anyComboMatches(combinations []map[string]string, values map[string]schema.Value) bool {
	for _, combo := range combinations {
		if matchesCombo(combo, values) {
			return true
		}
	}
	return false
}

func restrictTo(values map[string]schema.Value, cols map[string]bool) map[string]schema.Value {
	out := make(map[string]schema.Value, len(cols))
	for col := range cols {
		if v, ok := values[col]; ok {
			out[col] = v
		}
	}
	return out
}

func (rg *RowGenerator) checkUniqueness(values map[string]schema.Value, pkSeen map[string]bool, uniqueSeen []map[string]bool) bool {
	var pkKey string
	hasPK := len(rg.table.PrimaryKey) > 0
	if hasPK {
		pkKey = compositeKey(rg.table.PrimaryKey, values)
		if pkSeen[pkKey] {
			return false
		}
	}
	ukKeys := make([]string, len(rg.uniqueKeys))
	for i, uk := range rg.uniqueKeys {
		ukKeys[i] = compositeKey(uk, values)
		if uniqueSeen[i][ukKeys[i]] {
			return false
		}
	}

	if hasPK {
		pkSeen[pkKey] = true
	}
	for i := range rg.uniqueKeys {
		uniqueSeen[i][ukKeys[i]] = true
	}
	return true
}

func compositeKey(cols []string, values map[string]schema.Value) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v, ok := values[c]
		if !ok || v.IsNull() {
			parts[i] = "NULL"
			continue
		}
		parts[i] = v.String()
	}
	return strings.Join(parts, "|")
}
