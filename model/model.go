package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Row is one result row keyed by column label.
type Row map[string]any

// Shape describes how rows map onto a record type T. It is built once with
// Define and is safe for concurrent use afterwards.
type Shape[T any] struct {
	name   string
	fields map[string]Field[T]
}

// Define builds the shape for T. Column names are matched case-insensitively.
// Defining the same column twice is a programming error and panics.
func Define[T any](name string, fields ...Field[T]) *Shape[T] {
	s := &Shape[T]{
		name:   name,
		fields: make(map[string]Field[T], len(fields)),
	}
	for _, f := range fields {
		key := strings.ToLower(f.Column)
		if _, dup := s.fields[key]; dup {
			panic(fmt.Sprintf("model %s: column %s defined twice", name, f.Column))
		}
		s.fields[key] = f
	}
	return s
}

// Name returns the shape name
func (s *Shape[T]) Name() string {
	return s.name
}

// Columns returns the mapped columns in sorted order.
func (s *Shape[T]) Columns() []string {
	cols := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		cols = append(cols, f.Column)
	}
	sort.Strings(cols)
	return cols
}

// Map converts one row. Columns without a field are ignored; NULL leaves
// the field at its zero value.
func (s *Shape[T]) Map(row Row) (T, error) {
	var rec T
	for col, v := range row {
		f, ok := s.fields[strings.ToLower(col)]
		if !ok || v == nil {
			continue
		}
		if err := f.set(&rec, v); err != nil {
			return rec, errors.Wrapf(err, "model %s: column %s", s.name, col)
		}
	}
	return rec, nil
}

// MapAll converts every row, stopping at the first failure.
func (s *Shape[T]) MapAll(rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := s.Map(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
