// Package simpledb re-exports the everyday API of the core, pool and model
// packages.
package simpledb

import (
	"context"

	"github.com/waveofmymind/simple-db/core"
	"github.com/waveofmymind/simple-db/model"
	"github.com/waveofmymind/simple-db/pool"
)

// Re-export core types and functions
type (
	DB         = core.DB
	SQL        = core.SQL
	Tx         = core.Tx
	TxState    = core.TxState
	Options    = core.Options
	Row        = core.Row
	Statement  = core.Statement
	Result     = core.Result
	Middleware = core.Middleware
	Handler    = core.Handler
	Conn       = pool.Conn
	Owner      = pool.Owner
)

const (
	TxAutoCommit = core.TxAutoCommit
	TxActive     = core.TxActive
	TxCommitted  = core.TxCommitted
	TxRolledBack = core.TxRolledBack
)

var (
	Open           = core.Open
	OpenContext    = core.OpenContext
	DefaultOptions = core.DefaultOptions

	NewOwner  = pool.NewOwner
	WithOwner = pool.WithOwner
	OwnerFrom = pool.OwnerFrom
)

// Errors
var (
	ErrRecordNotFound   = core.ErrRecordNotFound
	ErrInvalidSQL       = core.ErrInvalidSQL
	ErrStatementUsed    = core.ErrStatementUsed
	ErrTxOpen           = core.ErrTxOpen
	ErrTxDone           = core.ErrTxDone
	ErrUnknownDialect   = core.ErrUnknownDialect
	ErrDuplicateKey     = core.ErrDuplicateKey
	ErrForeignKey       = core.ErrForeignKey
	ErrConnectionFailed = core.ErrConnectionFailed
	ErrPoolClosed       = core.ErrPoolClosed
	ErrRevoked          = core.ErrRevoked
)

// SelectAs runs s and maps every row through shape.
func SelectAs[T any](ctx context.Context, s *SQL, shape *model.Shape[T]) ([]T, error) {
	return core.SelectAs(ctx, s, shape)
}

// SelectOneAs runs s and maps its first row through shape.
func SelectOneAs[T any](ctx context.Context, s *SQL, shape *model.Shape[T]) (T, error) {
	return core.SelectOneAs(ctx, s, shape)
}
