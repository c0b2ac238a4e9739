package core

import (
	"context"

	"github.com/waveofmymind/simple-db/model"
	"github.com/waveofmymind/simple-db/pool"
)

// Component is the base interface for all simpledb components/middleware.
type Component interface {
	Name() string
	Init(db *DB) error
	Shutdown() error
}

// Kind is the execution shape of a statement.
type Kind int

const (
	// KindUpdate returns the affected row count.
	KindUpdate Kind = iota
	// KindInsert returns the generated key.
	KindInsert
	// KindQuery returns rows.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindQuery:
		return "query"
	}
	return "update"
}

// Statement is one SQL execution request travelling through the chain.
type Statement struct {
	Kind Kind
	SQL  string
	Args []any
	// Conn pins the statement to a held connection. Nil means the executor
	// acquires and releases one itself.
	Conn *pool.Conn
}

// Result represents the result of a statement execution.
type Result struct {
	RowsAffected int64
	LastInsertID int64
	Columns      []string
	Rows         []model.Row
}

// Handler is the function type for the next step in the middleware chain.
type Handler func(ctx context.Context, stmt *Statement) (*Result, error)

// Middleware intercepts statement execution.
type Middleware interface {
	Component
	Process(ctx context.Context, stmt *Statement, next Handler) (*Result, error)
}
