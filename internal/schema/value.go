package schema

import (
	"fmt"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindDecimal
	KindDouble
	KindString
	KindDate
	KindTimestamp
	KindUUID
	KindDefault // the SqlDefaultSentinel: renders as the SQL keyword DEFAULT
)

// Value is the tagged-sum representation of one cell. Per the data-model
// design notes, this replaces a reflection-based "any" so every producer
// and consumer dispatches on an explicit Kind rather than a type switch
// over interface{}.
type Value struct {
	Kind ValueKind

	boolVal   bool
	intVal    int64
	decVal    float64 // Decimal value as a float64, rendered with decScale fractional digits
	decScale  int
	doubleVal float64
	strVal    string
	timeVal   time.Time
	// tzAware distinguishes TimestampTz from Timestamp within
	// KindTimestamp.
	tzAware bool
}

func Null() Value                { return Value{Kind: KindNull} }
func Default() Value             { return Value{Kind: KindDefault} }
func Bool(b bool) Value          { return Value{Kind: KindBool, boolVal: b} }
func Int(i int64) Value          { return Value{Kind: KindInt, intVal: i} }
func Double(f float64) Value     { return Value{Kind: KindDouble, doubleVal: f} }
func String(s string) Value      { return Value{Kind: KindString, strVal: s} }
func UUID(s string) Value        { return Value{Kind: KindUUID, strVal: s} }
func Decimal(v float64, scale int) Value {
	return Value{Kind: KindDecimal, decVal: v, decScale: scale}
}
func Date(t time.Time) Value { return Value{Kind: KindDate, timeVal: t} }
func Timestamp(t time.Time, tz bool) Value {
	return Value{Kind: KindTimestamp, timeVal: t, tzAware: tz}
}

func (v Value) IsNull() bool    { return v.Kind == KindNull }
func (v Value) IsDefault() bool { return v.Kind == KindDefault }
func (v Value) Bool() bool      { return v.boolVal }
func (v Value) Int() int64      { return v.intVal }
func (v Value) Double() float64 { return v.doubleVal }
func (v Value) String() string {
	switch v.Kind {
	case KindString, KindUUID:
		return v.strVal
	case KindNull:
		return "NULL"
	case KindDefault:
		return "DEFAULT"
	case KindInt:
		return fmt.Sprintf("%d", v.intVal)
	case KindDouble:
		return fmt.Sprintf("%v", v.doubleVal)
	case KindDecimal:
		return fmt.Sprintf("%.*f", v.decScale, v.decVal)
	case KindBool:
		return fmt.Sprintf("%v", v.boolVal)
	case KindDate:
		return v.timeVal.Format("2006-01-02")
	case KindTimestamp:
		return v.timeVal.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}
func (v Value) Decimal() (val float64, scale int) { return v.decVal, v.decScale }
func (v Value) Time() time.Time                   { return v.timeVal }
func (v Value) TZAware() bool                     { return v.tzAware }

// NumericValue returns the value as a float64 and true if the variant is
// numeric (Int, Decimal, Double); otherwise (0, false).
func (v Value) NumericValue() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.intVal), true
	case KindDecimal:
		return v.decVal, true
	case KindDouble:
		return v.doubleVal, true
	default:
		return 0, false
	}
}

// Row is an insertion-ordered map from column name to Value.
type Row struct {
	order  []string
	values map[string]Value
}

// NewRow returns an empty Row ready for Set calls.
func NewRow() *Row {
	return &Row{values: make(map[string]Value)}
}

// Set assigns col's value, appending col to the insertion order the first
// time it is set.
func (r *Row) Set(col string, v Value) {
	if _, ok := r.values[col]; !ok {
		r.order = append(r.order, col)
	}
	r.values[col] = v
}

// Get returns (value, true) if col has been set.
func (r *Row) Get(col string) (Value, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Has reports whether col has been set (including explicitly to null).
func (r *Row) Has(col string) bool {
	_, ok := r.values[col]
	return ok
}

// Columns returns the set columns in the order they were first assigned.
func (r *Row) Columns() []string {
	return append([]string(nil), r.order...)
}

// Clone returns a shallow copy safe for independent mutation.
func (r *Row) Clone() *Row {
	c := NewRow()
	for _, col := range r.order {
		c.Set(col, r.values[col])
	}
	return c
}

// PendingUpdate is a deferred UPDATE: the table to patch, the FK columns
// and their resolved parent values, and the row's own PK columns/values to
// use in the WHERE clause.
type PendingUpdate struct {
	Table     string
	FKValues  map[string]Value
	PKValues  map[string]Value
}

// TableRows is one table's ordered list of generated rows.
type TableRows struct {
	Table *Table
	Rows  []*Row
}

// GenerationResult is the Orchestrator's output: an ordered mapping from
// table to its generated rows, the ordered list of deferred updates
// accumulated during FK resolution, and the effectiveDeferred flag the
// Orchestrator computed (config override or forced by a non-nullable FK
// cycle) — a DialectWriter needs this to decide whether to emit
// constraint-deferring session framing.
type GenerationResult struct {
	Order             []string // table names, in the order they were generated
	RowsByTable       map[string]*TableRows
	PendingUpdates    []PendingUpdate
	EffectiveDeferred bool
}

func NewGenerationResult() *GenerationResult {
	return &GenerationResult{RowsByTable: make(map[string]*TableRows)}
}

func (g *GenerationResult) Add(table *Table, rows []*Row) {
	if _, ok := g.RowsByTable[table.Name]; !ok {
		g.Order = append(g.Order, table.Name)
	}
	g.RowsByTable[table.Name] = &TableRows{Table: table, Rows: rows}
}
