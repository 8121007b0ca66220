// Package schema holds the data-model types shared by every stage of the
// generation pipeline: the introspected shape of a database (Column,
// ForeignKey, Table, SchemaDescriptor) and the shape of its synthesized
// contents (Row, PendingUpdate, GenerationResult).
//
// Tables and columns are identified by name rather than by pointer or
// object reference, so the rest of the pipeline can treat relationships as
// plain name lookups instead of needing back-pointers.
package schema

// Type is the abstract SQL type tag for a column. It deliberately collapses
// dialect-specific type names (INT, INTEGER, SERIAL, NUMBER, ...) down to a
// small set the generator can dispatch on.
type Type int

const (
	TypeOther Type = iota
	TypeInteger8
	TypeInteger16
	TypeInteger32
	TypeInteger64
	TypeDecimal
	TypeFloat
	TypeDouble
	TypeBool
	TypeChar
	TypeVarchar
	TypeText
	TypeDate
	TypeTimestamp
	TypeTimestampTz
	TypeUuid
	TypeBlob
)

func (t Type) String() string {
	switch t {
	case TypeInteger8:
		return "int8"
	case TypeInteger16:
		return "int16"
	case TypeInteger32:
		return "int32"
	case TypeInteger64:
		return "int64"
	case TypeDecimal:
		return "decimal"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeBool:
		return "bool"
	case TypeChar:
		return "char"
	case TypeVarchar:
		return "varchar"
	case TypeText:
		return "text"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	case TypeTimestampTz:
		return "timestamptz"
	case TypeUuid:
		return "uuid"
	case TypeBlob:
		return "blob"
	default:
		return "other"
	}
}

// IsIntegerType reports whether t is one of the fixed-width integer tags.
func (t Type) IsIntegerType() bool {
	switch t {
	case TypeInteger8, TypeInteger16, TypeInteger32, TypeInteger64:
		return true
	default:
		return false
	}
}

// IsNumericType reports whether t can be the target of a numeric bound.
func (t Type) IsNumericType() bool {
	return t.IsIntegerType() || t == TypeDecimal || t == TypeFloat || t == TypeDouble
}

// IsDateType reports whether t is a date/time-flavored tag.
func (t Type) IsDateType() bool {
	switch t {
	case TypeDate, TypeTimestamp, TypeTimestampTz:
		return true
	default:
		return false
	}
}

// IsStringType reports whether t is a character-flavored tag.
func (t Type) IsStringType() bool {
	switch t {
	case TypeChar, TypeVarchar, TypeText:
		return true
	default:
		return false
	}
}

// Column describes one column of a Table.
type Column struct {
	Name      string
	Type      Type
	Nullable  bool
	PK        bool
	Uuid      bool // Type == TypeUuid, or a name heuristic matched at introspection time
	Length    *int // declared length, for Char/Varchar
	Precision *int // declared precision, for Decimal
	Scale     *int // declared scale, for Decimal

	// MinValue/MaxValue come from trivial constraint inference at
	// introspection time (e.g. an unsigned column, or a CHECK the reader
	// chose to fold in eagerly); at generation time each one is used only
	// when the ConstraintParser derives no bound for that end from the
	// CHECK expressions.
	MinValue *float64
	MaxValue *float64

	// AllowedValues holds declared enumeration values (e.g. from an ENUM
	// type, or a Postgres domain), filled in by the SchemaReader.
	AllowedValues []string
}

// ForeignKey is an ordered child-column → parent-column mapping from one
// table to another. Composite keys are supported: Columns holds one pair
// per key column, in declaration order.
type ForeignKey struct {
	Name           string
	ParentTable    string
	Columns        []FKColumnPair
	UniqueOnFK     bool // the FK's child column set is also a unique key (1:1)
}

// FKColumnPair is one (child column, parent column) pair of a ForeignKey.
type FKColumnPair struct {
	ChildColumn  string
	ParentColumn string
}

// ChildColumns returns the ordered list of child-side column names.
func (fk ForeignKey) ChildColumns() []string {
	names := make([]string, len(fk.Columns))
	for i, p := range fk.Columns {
		names[i] = p.ChildColumn
	}
	return names
}

// Table describes one relation: its columns (in declaration order), its
// primary key (possibly empty), its foreign keys, its raw CHECK expression
// strings, and its unique keys (each an ordered list of column names).
type Table struct {
	Name          string
	Columns       []Column
	PrimaryKey    []string
	ForeignKeys   []ForeignKey
	CheckExprs    []string
	UniqueKeys    [][]string

	columnIndex map[string]int // lazily built by Column lookup
}

// Column looks up a column by name, returning (column, true) if present.
func (t *Table) Column(name string) (Column, bool) {
	if t.columnIndex == nil {
		t.columnIndex = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			t.columnIndex[c.Name] = i
		}
	}
	i, ok := t.columnIndex[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// SetColumn replaces the named column's metadata, invalidating nothing
// (the index maps unchanged names to unchanged slots).
func (t *Table) SetColumn(name string, col Column) {
	if t.columnIndex == nil {
		t.Column(name) // build the index
	}
	if i, ok := t.columnIndex[name]; ok {
		t.Columns[i] = col
	}
}

// Clone returns a deep-enough copy of the table for patching (e.g. applying
// pkUuidOverrides) without mutating the caller's SchemaDescriptor.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	pk := append([]string(nil), t.PrimaryKey...)
	fks := append([]ForeignKey(nil), t.ForeignKeys...)
	checks := append([]string(nil), t.CheckExprs...)
	uniques := make([][]string, len(t.UniqueKeys))
	for i, u := range t.UniqueKeys {
		uniques[i] = append([]string(nil), u...)
	}
	return &Table{
		Name:        t.Name,
		Columns:     cols,
		PrimaryKey:  pk,
		ForeignKeys: fks,
		CheckExprs:  checks,
		UniqueKeys:  uniques,
	}
}

// SchemaDescriptor is an ordered set of Table, as returned by a SchemaReader.
type SchemaDescriptor struct {
	Tables []*Table
}

// TableMap indexes the descriptor's tables by name.
func (s *SchemaDescriptor) TableMap() map[string]*Table {
	m := make(map[string]*Table, len(s.Tables))
	for _, t := range s.Tables {
		m[t.Name] = t
	}
	return m
}
