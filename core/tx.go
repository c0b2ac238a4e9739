package core

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/waveofmymind/simple-db/pool"
)

// TxState tracks where a transaction is in its lifecycle.
type TxState int

const (
	TxAutoCommit TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled back"
	}
	return "auto-commit"
}

// Tx represents a database transaction bound to one held connection.
// A failing statement does not roll the transaction back; the caller
// decides. End gives the connection back and refuses while still active.
// A Tx is used by one goroutine.
type Tx struct {
	db    *DB
	conn  *pool.Conn
	state TxState
	ended bool
}

// Begin holds a connection for the owner on ctx and starts a transaction on it.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := conn.Session()
	if err == nil {
		start := time.Now()
		err = sess.Begin(ctx)
		db.logTx("BEGIN", time.Since(start))
	}
	if err != nil {
		db.pool.Release(conn)
		return nil, errors.Wrap(err, "transaction begin failed")
	}
	return &Tx{db: db, conn: conn, state: TxActive}, nil
}

func (db *DB) logTx(verb string, d time.Duration) {
	db.mu.RLock()
	l, dev := db.logger, db.devMode
	db.mu.RUnlock()
	if dev {
		l.SQL(verb, d)
	}
}

// State returns the transaction state.
func (tx *Tx) State() TxState {
	return tx.state
}

// Conn returns the held connection.
func (tx *Tx) Conn() *pool.Conn {
	return tx.conn
}

// GenSQL starts a statement running inside the transaction.
func (tx *Tx) GenSQL() *SQL {
	return tx.db.GenSQL().On(tx.conn)
}

// Run executes an update statement inside the transaction.
func (tx *Tx) Run(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := tx.db.execute(ctx, &Statement{Kind: KindUpdate, SQL: query, Args: args, Conn: tx.conn})
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func (tx *Tx) finish(commit bool) error {
	verb, next := "ROLLBACK", TxRolledBack
	if commit {
		verb, next = "COMMIT", TxCommitted
	}
	if tx.state != TxActive {
		return errors.Wrapf(ErrTxDone, "%s in state %s", verb, tx.state)
	}
	sess, err := tx.conn.Session()
	if err != nil {
		// The pool took the connection back and discarded the transaction.
		tx.state = TxRolledBack
		return errors.Wrapf(err, "transaction %s failed", verb)
	}

	start := time.Now()
	if commit {
		err = sess.Commit()
	} else {
		err = sess.Rollback()
	}
	tx.db.logTx(verb, time.Since(start))
	if err != nil {
		// The session is back in auto-commit either way.
		tx.state = TxRolledBack
		return errors.Wrapf(err, "transaction %s failed", verb)
	}
	tx.state = next
	return nil
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return tx.finish(true)
}

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error {
	return tx.finish(false)
}

// End releases the connection. It returns ErrTxOpen and keeps the
// connection while the transaction is still active. Calling End again is
// a no-op.
func (tx *Tx) End() error {
	if tx.ended {
		return nil
	}
	if tx.state == TxActive {
		return ErrTxOpen
	}
	tx.ended = true
	tx.db.pool.Release(tx.conn)
	return nil
}

// Transaction runs fn in a transaction. It commits when fn returns nil
// and rolls back when fn fails or panics; the connection is released in
// every case.
func (db *DB) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			_ = tx.End()
			panic(p)
		}
		switch {
		case tx.State() != TxActive:
			// fn finished the transaction itself.
		case err != nil:
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.WithSecondaryError(err, rbErr)
			}
		default:
			err = tx.Commit()
		}
		_ = tx.End()
	}()

	return fn(tx)
}
