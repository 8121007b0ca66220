package reader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// PostgresReader reads a schema from a Postgres database via
// information_schema, including raw CHECK text from
// information_schema.check_constraints.check_clause.
type PostgresReader struct {
	DB     *sql.DB
	Schema string // usually "public"
}

func NewPostgresReader(db *sql.DB, pgSchema string) *PostgresReader {
	if pgSchema == "" {
		pgSchema = "public"
	}
	return &PostgresReader{DB: db, Schema: pgSchema}
}

func (r *PostgresReader) ReadSchema(ctx context.Context) (*schema.SchemaDescriptor, error) {
	names, err := r.listTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("reader: listing postgres tables: %w", err)
	}

	desc := &schema.SchemaDescriptor{}
	for _, name := range names {
		t, err := r.readTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("reader: introspecting postgres table %s: %w", name, err)
		}
		desc.Tables = append(desc.Tables, t)
	}
	return desc, nil
}

func (r *PostgresReader) listTables(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, r.Schema)
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

func (r *PostgresReader) readTable(ctx context.Context, name string) (*schema.Table, error) {
	t := &schema.Table{Name: name}

	pkCols, err := r.primaryKeyColumns(ctx, name)
	if err != nil {
		return nil, err
	}
	pkSet := make(map[string]bool, len(pkCols))
	for _, c := range pkCols {
		pkSet[c] = true
	}
	t.PrimaryKey = pkCols

	rows, err := r.DB.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, character_maximum_length,
		       numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, r.Schema, name)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			colName, dataType, isNullable string
			maxLen, precision, scale      sql.NullInt64
		)
		if err := rows.Scan(&colName, &dataType, &isNullable, &maxLen, &precision, &scale); err != nil {
			rows.Close()
			return nil, err
		}
		col := schema.Column{
			Name:     colName,
			Type:     mapPostgresType(dataType),
			Nullable: isNullable == "YES",
			PK:       pkSet[colName],
		}
		if maxLen.Valid {
			l := int(maxLen.Int64)
			col.Length = &l
		}
		if precision.Valid {
			p := int(precision.Int64)
			col.Precision = &p
		}
		if scale.Valid {
			s := int(scale.Int64)
			col.Scale = &s
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

func (r *PostgresReader) primaryKeyColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, r.Schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (r *PostgresReader) readForeignKeys(ctx context.Context, t *schema.Table) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`, r.Schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	byName := make(map[string]*schema.ForeignKey)
	var order []string
	for rows.Next() {
		var constraintName, colName, refTable, refCol string
		if err := rows.Scan(&constraintName, &colName, &refTable, &refCol); err != nil {
			return err
		}
		fk, ok := byName[constraintName]
		if !ok {
			fk = &schema.ForeignKey{Name: constraintName, ParentTable: refTable}
			byName[constraintName] = fk
			order = append(order, constraintName)
		}
		fk.Columns = append(fk.Columns, schema.FKColumnPair{ChildColumn: colName, ParentColumn: refCol})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, name := range order {
		t.ForeignKeys = append(t.ForeignKeys, *byName[name])
	}
	return nil
}

func (r *PostgresReader) readUniqueKeys(ctx context.Context, t *schema.Table) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'UNIQUE' AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`, r.Schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	byName := make(map[string][]string)
	var order []string
	for rows.Next() {
		var name, col string
		if err := rows.Scan(&name, &col); err != nil {
			return err
		}
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = append(byName[name], col)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, name := range order {
		t.UniqueKeys = append(t.UniqueKeys, byName[name])
	}
	return nil
}

func (r *PostgresReader) readCheckConstraints(ctx context.Context, t *schema.Table) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT cc.check_clause
		FROM information_schema.check_constraints cc
		JOIN information_schema.table_constraints tc
		  ON cc.constraint_name = tc.constraint_name AND cc.constraint_schema = tc.constraint_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2`, r.Schema, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var clause string
		if err := rows.Scan(&clause); err != nil {
			return err
		}
		t.CheckExprs = append(t.CheckExprs, clause)
	}
	return rows.Err()
}

func mapPostgresType(dataType string) schema.Type {
	switch strings.ToLower(dataType) {
	case "smallint":
		return schema.TypeInteger16
	case "integer":
		return schema.TypeInteger32
	case "bigint":
		return schema.TypeInteger64
	case "numeric", "decimal":
		return schema.TypeDecimal
	case "real":
		return schema.TypeFloat
	case "double precision":
		return schema.TypeDouble
	case "boolean":
		return schema.TypeBool
	case "character":
		return schema.TypeChar
	case "character varying":
		return schema.TypeVarchar
	case "text", "json", "jsonb":
		return schema.TypeText
	case "date":
		return schema.TypeDate
	case "timestamp without time zone":
		return schema.TypeTimestamp
	case "timestamp with time zone":
		return schema.TypeTimestampTz
	case "uuid":
		return schema.TypeUuid
	case "bytea":
		return schema.TypeBlob
	default:
		return schema.TypeOther
	}
}
