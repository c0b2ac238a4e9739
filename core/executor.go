package core

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/waveofmymind/simple-db/model"
)

// execute runs stmt through the middleware chain.
func (db *DB) execute(ctx context.Context, stmt *Statement) (*Result, error) {
	db.mu.RLock()
	mws := db.middleware
	db.mu.RUnlock()

	h := db.run
	for i := len(mws) - 1; i >= 0; i-- {
		mw, next := mws[i], h
		h = func(ctx context.Context, stmt *Statement) (*Result, error) {
			return mw.Process(ctx, stmt, next)
		}
	}
	return h(ctx, stmt)
}

// run is the end of the chain. Without a pinned connection it acquires one
// for the owner on ctx and always releases it again.
func (db *DB) run(ctx context.Context, stmt *Statement) (*Result, error) {
	if strings.TrimSpace(stmt.SQL) == "" {
		return nil, ErrInvalidSQL
	}

	conn := stmt.Conn
	if conn == nil {
		var err error
		if conn, err = db.pool.Acquire(ctx); err != nil {
			return nil, err
		}
		defer db.pool.Release(conn)
	}
	sess, err := conn.Session()
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	l, dev := db.logger, db.devMode
	db.mu.RUnlock()
	if dev {
		l.Statement(stmt.SQL, stmt.Args...)
	}

	start := time.Now()
	res := &Result{}
	switch stmt.Kind {
	case KindInsert:
		res.LastInsertID, err = sess.ExecReturningKey(ctx, stmt.SQL, db.keyColumn, stmt.Args...)
		if err == nil {
			res.RowsAffected = 1
		}
	case KindQuery:
		var rows *sql.Rows
		if rows, err = sess.Query(ctx, stmt.SQL, stmt.Args...); err == nil {
			res.Columns, res.Rows, err = scanRows(rows)
		}
	default:
		res.RowsAffected, err = sess.Exec(ctx, stmt.SQL, stmt.Args...)
	}
	elapsed := time.Since(start)

	if err != nil {
		l.WithFields(map[string]any{
			"kind":     stmt.Kind.String(),
			"conn":     conn.ID(),
			"duration": elapsed.String(),
		}).Error("SQL: %s | Args: %v | %v", stmt.SQL, stmt.Args, err)
		return nil, errors.Wrapf(err, "%s failed", stmt.Kind)
	}
	l.Debug("%s on conn %d took %s", stmt.Kind, conn.ID(), elapsed)
	return res, nil
}

func scanRows(rows *sql.Rows) ([]string, []model.Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	var out []model.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(model.Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(vals[i], types[i].DatabaseTypeName())
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}

// normalize turns raw driver bytes into the Go value the column type
// implies. Non-byte values pass through.
func normalize(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch strings.ToUpper(dbType) {
	case "BIT", "BOOL", "BOOLEAN":
		if len(b) == 1 && b[0] <= 1 {
			return b[0] == 1
		}
		if parsed, err := strconv.ParseBool(string(b)); err == nil {
			return parsed
		}
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "INT2", "INT4", "INT8":
		if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return n
		}
	case "UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseUint(string(b), 10, 64); err == nil {
			return n
		}
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	case "DATE", "DATETIME", "TIMESTAMP":
		if isZeroDate(string(b)) {
			return nil
		}
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BYTEA":
		return append([]byte(nil), b...)
	}
	return string(b)
}

func isZeroDate(s string) bool {
	return s == "" || strings.HasPrefix(s, "0000-00-00")
}
