package core

import (
	"github.com/cockroachdb/errors"

	"github.com/waveofmymind/simple-db/pool"
	"github.com/waveofmymind/simple-db/store"
)

var (
	// ErrRecordNotFound is returned when a query expects at least one record but none were found.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidSQL is returned when a raw SQL statement is empty or malformed.
	ErrInvalidSQL = errors.New("invalid sql")
	// ErrStatementUsed is returned when a statement is executed a second time.
	ErrStatementUsed = errors.New("statement already executed")
	// ErrTxOpen is returned by End while the transaction is neither committed nor rolled back.
	ErrTxOpen = errors.New("transaction still open")
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("transaction already finished")
	// ErrUnknownDialect is returned by Open for an unregistered driver.
	ErrUnknownDialect = errors.New("unknown dialect")

	// ErrDuplicateKey is returned when a database unique constraint is violated.
	ErrDuplicateKey = store.ErrDuplicateKey
	// ErrForeignKey is returned when a database foreign key constraint is violated.
	ErrForeignKey = store.ErrForeignKey
	// ErrConnectionFailed is returned when the database connection cannot be established or is lost.
	ErrConnectionFailed = store.ErrConnectionFailed

	// ErrPoolClosed is returned after Close.
	ErrPoolClosed = pool.ErrClosed
	// ErrRevoked is returned when a held connection was taken back by the pool.
	ErrRevoked = pool.ErrRevoked
)
