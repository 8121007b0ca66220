package reader

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// SQLiteReader reads a schema from a SQLite file via the PRAGMA introspection
// commands. SQLite has no structured CHECK-constraint catalog, so CHECK
// clauses are pulled out of the raw CREATE TABLE text in sqlite_master with
// a regex, best-effort, the same spirit as the ConstraintParser's own
// regex-driven approach to CHECK expressions (see internal/constraint).
type SQLiteReader struct {
	DB *sql.DB
}

func NewSQLiteReader(db *sql.DB) *SQLiteReader {
	return &SQLiteReader{DB: db}
}

func (r *SQLiteReader) ReadSchema(ctx context.Context) (*schema.SchemaDescriptor, error) {
	names, err := r.listTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("reader: listing sqlite tables: %w", err)
	}

	desc := &schema.SchemaDescriptor{}
	for _, name := range names {
		t, err := r.readTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("reader: introspecting sqlite table %s: %w", name, err)
		}
		desc.Tables = append(desc.Tables, t)
	}
	return desc, nil
}

func (r *SQLiteReader) listTables(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *SQLiteReader) readTable(ctx context.Context, name string) (*schema.Table, error) {
	t := &schema.Table{Name: name}

	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(name)))
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			cid          int
			colName, typ string
			notNull      int
			dflt         sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &colName, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return nil, err
		}
		col := schema.Column{
			Name:     colName,
			Type:     mapSQLiteType(typ),
			Nullable: notNull == 0,
			PK:       pk > 0,
		}
		if length := extractDeclaredLength(typ); length != nil {
			col.Length = length
		}
		if pk > 0 {
			t.PrimaryKey = append(t.PrimaryKey, colName)
		}
		t.Columns = append(t.Columns, col)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.readForeignKeys(ctx, t); err != nil {
		return nil, err
	}
	if err := r.readUniqueKeys(ctx, t); err != nil {
		return nil, err
	}
	if err := r.readCheckConstraints(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *SQLiteReader) readForeignKeys(ctx context.Context, t *schema.Table) error {
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%s)`, quoteIdent(t.Name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[int]*schema.ForeignKey)
	var order []int
	for rows.Next() {
		var (
			id, seq                      int
			refTable, fromCol, toCol     string
			onUpdate, onDelete, matchVal string
		)
		if err := rows.Scan(&id, &seq, &refTable, &fromCol, &toCol, &onUpdate, &onDelete, &matchVal); err != nil {
			return err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &schema.ForeignKey{Name: fmt.Sprintf("%s_fk%d", t.Name, id), ParentTable: refTable}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, schema.FKColumnPair{ChildColumn: fromCol, ParentColumn: toCol})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range order {
		t.ForeignKeys = append(t.ForeignKeys, *byID[id])
	}
	return nil
}

func (r *SQLiteReader) readUniqueKeys(ctx context.Context, t *schema.Table) error {
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%s)`, quoteIdent(t.Name)))
	if err != nil {
		return err
	}
	type idxRef struct {
		seq     int
		name    string
		unique  bool
		origin  string
	}
	var idxs []idxRef
	for rows.Next() {
		var (
			seq        int
			name       string
			unique     int
			origin     string
			partial    int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return err
		}
		idxs = append(idxs, idxRef{seq: seq, name: name, unique: unique == 1, origin: origin})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, idx := range idxs {
		if !idx.unique || idx.origin == "pk" {
			continue
		}
		cols, err := r.indexColumns(ctx, idx.name)
		if err != nil {
			return err
		}
		if len(cols) > 0 {
			t.UniqueKeys = append(t.UniqueKeys, cols)
		}
	}
	return nil
}

func (r *SQLiteReader) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_info(%s)`, quoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var colName string
		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		cols = append(cols, colName)
	}
	return cols, rows.Err()
}

var sqliteCheckRegex = regexp.MustCompile(`(?i)CHECK\s*\((.*?)\)(?:\s*,|\s*\))`)

func (r *SQLiteReader) readCheckConstraints(ctx context.Context, t *schema.Table) error {
	row := r.DB.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, t.Name)
	var ddl string
	if err := row.Scan(&ddl); err != nil {
		return err
	}
	for _, m := range sqliteCheckRegex.FindAllStringSubmatch(ddl, -1) {
		expr := strings.TrimSpace(m[1])
		if expr != "" {
			t.CheckExprs = append(t.CheckExprs, expr)
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var sqliteLengthRegex = regexp.MustCompile(`\((\d+)\)`)

func extractDeclaredLength(declType string) *int {
	m := sqliteLengthRegex.FindStringSubmatch(declType)
	if m == nil {
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(m[1], "%d", &n); err != nil {
		return nil
	}
	return &n
}

func mapSQLiteType(declType string) schema.Type {
	t := strings.ToUpper(declType)
	switch {
	case strings.Contains(t, "INT"):
		return schema.TypeInteger64
	case strings.Contains(t, "DECIMAL") || strings.Contains(t, "NUMERIC"):
		return schema.TypeDecimal
	case strings.Contains(t, "DOUBLE") || strings.Contains(t, "REAL") || strings.Contains(t, "FLOA"):
		return schema.TypeDouble
	case strings.Contains(t, "BOOL"):
		return schema.TypeBool
	case strings.Contains(t, "CHAR") && strings.Contains(t, "VAR"):
		return schema.TypeVarchar
	case strings.Contains(t, "CHAR"):
		return schema.TypeChar
	case strings.Contains(t, "TEXT") || strings.Contains(t, "CLOB") || strings.Contains(t, "JSON"):
		return schema.TypeText
	case strings.Contains(t, "DATETIME") || strings.Contains(t, "TIMESTAMP"):
		return schema.TypeTimestamp
	case strings.Contains(t, "DATE"):
		return schema.TypeDate
	case strings.Contains(t, "UUID"):
		return schema.TypeUuid
	case strings.Contains(t, "BLOB"):
		return schema.TypeBlob
	default:
		return schema.TypeOther
	}
}
