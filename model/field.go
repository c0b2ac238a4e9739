package model

import (
	"database/sql"
	"time"
)

// Field maps one column onto a record of type T
type Field[T any] struct {
	Column string
	set    func(rec *T, v any) error
}

func typed[T, V any](column string, conv func(any) (V, error), assign func(*T, V)) Field[T] {
	return Field[T]{
		Column: column,
		set: func(rec *T, v any) error {
			val, err := conv(v)
			if err != nil {
				return err
			}
			assign(rec, val)
			return nil
		},
	}
}

// Int64 maps an integer column.
func Int64[T any](column string, assign func(*T, int64)) Field[T] {
	return typed(column, ToInt64, assign)
}

// Int maps an integer column onto an int.
func Int[T any](column string, assign func(*T, int)) Field[T] {
	return typed(column, ToInt, assign)
}

// String maps a text column.
func String[T any](column string, assign func(*T, string)) Field[T] {
	return typed(column, ToString, assign)
}

// Bool maps a boolean column, including BIT(1) and 0/1 integers.
func Bool[T any](column string, assign func(*T, bool)) Field[T] {
	return typed(column, ToBool, assign)
}

// Float64 maps a floating point or decimal column.
func Float64[T any](column string, assign func(*T, float64)) Field[T] {
	return typed(column, ToFloat64, assign)
}

// Time maps a date/time column.
func Time[T any](column string, assign func(*T, time.Time)) Field[T] {
	return typed(column, ToTime, assign)
}

// Bytes maps a binary column.
func Bytes[T any](column string, assign func(*T, []byte)) Field[T] {
	return typed(column, ToBytes, assign)
}

// NullTime maps a nullable date/time column. NULL leaves it invalid.
func NullTime[T any](column string, assign func(*T, sql.NullTime)) Field[T] {
	return typed(column, func(v any) (sql.NullTime, error) {
		t, err := ToTime(v)
		if err != nil {
			return sql.NullTime{}, err
		}
		return sql.NullTime{Time: t, Valid: true}, nil
	}, assign)
}
