package core

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/waveofmymind/simple-db/model"
	"github.com/waveofmymind/simple-db/pool"
)

// Row is one result row keyed by column label.
type Row = model.Row

// SQL is a statement under construction. Fragments are joined with single
// spaces and their parameters collected left to right. A SQL value runs
// once; any terminal call after the first returns ErrStatementUsed.
type SQL struct {
	db   *DB
	conn *pool.Conn
	sb   strings.Builder
	args []any
	used bool
}

// On pins the statement to a held connection.
func (s *SQL) On(conn *pool.Conn) *SQL {
	s.conn = conn
	return s
}

// Append adds a fragment and its parameters.
func (s *SQL) Append(fragment string, args ...any) *SQL {
	if s.sb.Len() > 0 {
		s.sb.WriteByte(' ')
	}
	s.sb.WriteString(fragment)
	s.args = append(s.args, args...)
	return s
}

// AppendIn adds a fragment whose first '?' stands for a whole collection,
// as in "WHERE id IN (?)" or "ORDER BY FIELD(id, ?)". The placeholder is
// expanded to one '?' per element and the elements are appended in order.
// An empty collection expands to NULL. A non-slice value is one element.
func (s *SQL) AppendIn(fragment string, values any) *SQL {
	var items []any
	v := reflect.ValueOf(values)
	switch {
	case !v.IsValid():
	case (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8:
		items = make([]any, v.Len())
		for i := range items {
			items[i] = v.Index(i).Interface()
		}
	default:
		items = []any{values}
	}

	expanded := "NULL"
	if len(items) > 0 {
		expanded = strings.TrimSuffix(strings.Repeat("?, ", len(items)), ", ")
	}
	return s.Append(strings.Replace(fragment, "?", expanded, 1), items...)
}

// Text returns the statement text built so far.
func (s *SQL) Text() string {
	return s.sb.String()
}

// Args returns a copy of the collected parameters.
func (s *SQL) Args() []any {
	return append([]any(nil), s.args...)
}

func (s *SQL) exec(ctx context.Context, kind Kind) (*Result, error) {
	if s.used {
		return nil, ErrStatementUsed
	}
	s.used = true
	return s.db.execute(ctx, &Statement{Kind: kind, SQL: s.Text(), Args: s.args, Conn: s.conn})
}

// Insert runs the statement and returns the generated key.
func (s *SQL) Insert(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, KindInsert)
	if err != nil {
		return 0, err
	}
	return res.LastInsertID, nil
}

// Update runs the statement and returns the affected row count.
func (s *SQL) Update(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, KindUpdate)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Delete runs the statement and returns the affected row count.
func (s *SQL) Delete(ctx context.Context) (int64, error) {
	return s.Update(ctx)
}

// SelectRows returns every row.
func (s *SQL) SelectRows(ctx context.Context) ([]Row, error) {
	res, err := s.exec(ctx, KindQuery)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// SelectRow returns the first row, or ErrRecordNotFound.
func (s *SQL) SelectRow(ctx context.Context) (Row, error) {
	rows, err := s.SelectRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrRecordNotFound
	}
	return rows[0], nil
}

// firstColumn returns the first column of every row.
func (s *SQL) firstColumn(ctx context.Context) ([]any, error) {
	res, err := s.exec(ctx, KindQuery)
	if err != nil {
		return nil, err
	}
	if len(res.Columns) == 0 {
		return nil, nil
	}
	col := res.Columns[0]
	vals := make([]any, len(res.Rows))
	for i, row := range res.Rows {
		vals[i] = row[col]
	}
	return vals, nil
}

func scalar[V any](ctx context.Context, s *SQL, conv func(any) (V, error)) (V, error) {
	var zero V
	vals, err := s.firstColumn(ctx)
	if err != nil {
		return zero, err
	}
	if len(vals) == 0 || vals[0] == nil {
		return zero, ErrRecordNotFound
	}
	return conv(vals[0])
}

// SelectString returns the first column of the first row as a string.
func (s *SQL) SelectString(ctx context.Context) (string, error) {
	return scalar(ctx, s, model.ToString)
}

// SelectLong returns the first column of the first row as an int64.
func (s *SQL) SelectLong(ctx context.Context) (int64, error) {
	return scalar(ctx, s, model.ToInt64)
}

// SelectBoolean returns the first column of the first row as a bool.
func (s *SQL) SelectBoolean(ctx context.Context) (bool, error) {
	return scalar(ctx, s, model.ToBool)
}

// SelectDatetime returns the first column of the first row as a time.
func (s *SQL) SelectDatetime(ctx context.Context) (time.Time, error) {
	return scalar(ctx, s, model.ToTime)
}

// SelectLongs returns the first column of every row as int64 values.
// NULL values are skipped.
func (s *SQL) SelectLongs(ctx context.Context) ([]int64, error) {
	vals, err := s.firstColumn(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		n, err := model.ToInt64(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// SelectAs runs s and maps every row through shape.
func SelectAs[T any](ctx context.Context, s *SQL, shape *model.Shape[T]) ([]T, error) {
	rows, err := s.SelectRows(ctx)
	if err != nil {
		return nil, err
	}
	return shape.MapAll(rows)
}

// SelectOneAs runs s and maps the first row through shape.
func SelectOneAs[T any](ctx context.Context, s *SQL, shape *model.Shape[T]) (T, error) {
	row, err := s.SelectRow(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return shape.Map(row)
}
