// Package gen generates record types and model shapes from live tables.
package gen

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/waveofmymind/simple-db/core"
	"github.com/waveofmymind/simple-db/model"
)

// Column is one table column as reported by the database catalog.
type Column struct {
	Name    string
	DBType  string
	NotNull bool
	PK      bool
	Comment string
}

type tableName struct{ Name string }

var tableShape = model.Define("table",
	model.String("name", func(t *tableName, v string) { t.Name = v }),
)

var sqliteColumnShape = model.Define("sqlite_column",
	model.String("name", func(c *Column, v string) { c.Name = v }),
	model.String("type", func(c *Column, v string) { c.DBType = v }),
	model.Bool("notnull", func(c *Column, v bool) { c.NotNull = v }),
	model.Bool("pk", func(c *Column, v bool) { c.PK = v }),
)

var mysqlColumnShape = model.Define("mysql_column",
	model.String("Field", func(c *Column, v string) { c.Name = v }),
	model.String("Type", func(c *Column, v string) { c.DBType = v }),
	model.String("Null", func(c *Column, v string) { c.NotNull = v == "NO" }),
	model.String("Key", func(c *Column, v string) { c.PK = v == "PRI" }),
	model.String("Comment", func(c *Column, v string) { c.Comment = v }),
)

var postgresColumnShape = model.Define("postgres_column",
	model.String("column_name", func(c *Column, v string) { c.Name = v }),
	model.String("data_type", func(c *Column, v string) { c.DBType = v }),
	model.String("is_nullable", func(c *Column, v string) { c.NotNull = v == "NO" }),
	model.Bool("is_pk", func(c *Column, v bool) { c.PK = v }),
	model.String("comment", func(c *Column, v string) { c.Comment = v }),
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrUnsupportedDriver is returned for dialects without a catalog query.
var ErrUnsupportedDriver = errors.New("driver has no catalog support")

// Tables lists the user tables of the connected database.
func Tables(ctx context.Context, db *core.DB) ([]string, error) {
	s := db.GenSQL()
	switch db.Dialect().Name() {
	case "sqlite3":
		s.Append("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	case "mysql":
		s.Append("SELECT table_name AS name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name")
	case "postgres", "pgx":
		s.Append("SELECT tablename AS name FROM pg_catalog.pg_tables").
			Append("WHERE schemaname NOT IN ('pg_catalog', 'information_schema') ORDER BY tablename")
	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "%s", db.Dialect().Name())
	}

	names, err := core.SelectAs(ctx, s, tableShape)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.Name
	}
	return out, nil
}

// Columns reads the column list of table in declaration order.
func Columns(ctx context.Context, db *core.DB, table string) ([]Column, error) {
	if !identifier.MatchString(table) {
		return nil, errors.Newf("invalid table name %q", table)
	}

	var (
		cols []Column
		err  error
	)
	switch db.Dialect().Name() {
	case "sqlite3":
		cols, err = core.SelectAs(ctx, db.GenSQL().Append("PRAGMA table_info("+table+")"), sqliteColumnShape)
	case "mysql":
		cols, err = core.SelectAs(ctx, db.GenSQL().Append("SHOW FULL COLUMNS FROM "+db.Dialect().Quote(table)), mysqlColumnShape)
	case "postgres", "pgx":
		cols, err = core.SelectAs(ctx, db.GenSQL().
			Append("SELECT c.column_name, c.data_type, c.is_nullable,").
			Append("EXISTS (SELECT 1 FROM information_schema.table_constraints tc").
			Append("JOIN information_schema.key_column_usage kcu").
			Append("ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema").
			Append("WHERE tc.constraint_type = 'PRIMARY KEY' AND kcu.table_schema = c.table_schema").
			Append("AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name) AS is_pk,").
			Append("col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position) AS comment").
			Append("FROM information_schema.columns c").
			Append("WHERE c.table_name = ? AND c.table_schema = current_schema()", table).
			Append("ORDER BY c.ordinal_position"), postgresColumnShape)
	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "%s", db.Dialect().Name())
	}
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errors.Newf("table %s not found", table)
	}
	return cols, nil
}

// baseType strips size and modifiers: "tinyint(1) unsigned" -> "TINYINT".
func baseType(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	if i := strings.IndexByte(t, ' '); i >= 0 && !strings.HasPrefix(t, "DOUBLE PRECISION") && !strings.HasPrefix(t, "TIMESTAMP") && !strings.HasPrefix(t, "CHARACTER") {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
