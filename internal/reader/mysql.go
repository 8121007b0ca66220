package reader

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/dbsynth/dbsynth/internal/schema"
)

// MySQLReader reads a schema from MySQL 8+ (CHECK_CONSTRAINTS requires 8.0.16+).
type MySQLReader struct {
	DB       *sql.DB
	Database string
}

// NewMySQLReader wraps an already-open *sql.DB (driver "mysql").
func NewMySQLReader(db *sql.DB, database string) *MySQLReader {
	return &MySQLReader{DB: db, Database: database}
}

func (r *MySQLReader) ReadSchema(ctx context.Context) (*schema.SchemaDescriptor, error) {
	names, err := r.listTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("reader: listing mysql tables: %w", err)
	}

	desc := &schema.SchemaDescriptor{}
	for _, name := range names {
		t, err := r.readTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("reader: introspecting mysql table %s: %w", name, err)
		}
		desc.Tables = append(desc.Tables, t)
	}
	return desc, nil
}

func (r *MySQLReader) listTables(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`, r.Database)
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

var mysqlEnumRegex = regexp.MustCompile(`'([^']*)'`)

func (r *MySQLReader) readTable(ctx context.Context, name string) (*schema.Table, error) {
	t := &schema.Table{Name: name}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY,
		       CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, r.Database, name)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			colName, dataType, columnType, isNullable, colKey string
			maxLen, precision, scale                           sql.NullInt64
		)
		if err := rows.Scan(&colName, &dataType, &columnType, &isNullable, &colKey, &maxLen, &precision, &scale); err != nil {
			rows.Close()
			return nil, err
		}
		col := schema.Column{
			Name:     colName,
			Type:     mapMySQLType(dataType),
			Nullable: isNullable == "YES",
			PK:       colKey == "PRI",
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
		if strings.EqualFold(dataType, "enum") || strings.EqualFold(dataType, "set") {
			for _, m := range mysqlEnumRegex.FindAllStringSubmatch(columnType, -1) {
				col.AllowedValues = append(col.AllowedValues, m[1])
			}
		}
		if colKey == "PRI" {
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

func (r *MySQLReader) readForeignKeys(ctx context.Context, t *schema.Table) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`, r.Database, t.Name)
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

func (r *MySQLReader) readUniqueKeys(ctx context.Context, t *schema.Table) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT INDEX_NAME, COLUMN_NAME
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		  AND NON_UNIQUE = 0 AND INDEX_NAME != 'PRIMARY'
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`, r.Database, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	byName := make(map[string][]string)
	var order []string
	for rows.Next() {
		var idxName, colName string
		if err := rows.Scan(&idxName, &colName); err != nil {
			return err
		}
		if _, ok := byName[idxName]; !ok {
			order = append(order, idxName)
		}
		byName[idxName] = append(byName[idxName], colName)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	sort.Strings(order)
	for _, name := range order {
		t.UniqueKeys = append(t.UniqueKeys, byName[name])
	}
	return nil
}

func (r *MySQLReader) readCheckConstraints(ctx context.Context, t *schema.Table) error {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT cc.CHECK_CLAUSE
		FROM INFORMATION_SCHEMA.CHECK_CONSTRAINTS cc
		JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		  ON cc.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA AND cc.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ?`, r.Database, t.Name)
	if err != nil {
		// MySQL < 8.0.16 lacks CHECK_CONSTRAINTS; treat as no CHECK clauses.
		return nil
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

func mapMySQLType(dataType string) schema.Type {
	switch strings.ToLower(dataType) {
	case "tinyint":
		return schema.TypeInteger8
	case "smallint":
		return schema.TypeInteger16
	case "mediumint", "int", "integer":
		return schema.TypeInteger32
	case "bigint":
		return schema.TypeInteger64
	case "decimal", "numeric":
		return schema.TypeDecimal
	case "float":
		return schema.TypeFloat
	case "double":
		return schema.TypeDouble
	case "char":
		return schema.TypeChar
	case "varchar", "enum", "set":
		return schema.TypeVarchar
	case "text", "tinytext", "mediumtext", "longtext", "json":
		return schema.TypeText
	case "date":
		return schema.TypeDate
	case "datetime", "timestamp":
		return schema.TypeTimestamp
	case "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary":
		return schema.TypeBlob
	default:
		return schema.TypeOther
	}
}
