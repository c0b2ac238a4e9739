package store

import (
	"context"
	"database/sql"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/waveofmymind/simple-db/dialect"
)

// ErrTxActive is returned by Begin when the session already runs a transaction.
var ErrTxActive = errors.New("store: transaction already active")

// ErrNoTx is returned by Commit and Rollback outside a transaction.
var ErrNoTx = errors.New("store: no active transaction")

// Session is one dedicated backing-store session. It is used by a single
// owner at a time; the pool guarantees that.
type Session interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	ExecReturningKey(ctx context.Context, query, key string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// Begin turns auto-commit off until Commit or Rollback.
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
	InTx() bool

	// Reset discards a transaction left open by a previous owner.
	Reset() error
	Ping(ctx context.Context) error
	Close() error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlSession struct {
	conn    *sql.Conn
	dialect dialect.Dialect

	mu sync.Mutex
	tx *sql.Tx
}

func (s *sqlSession) target() execer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

func (s *sqlSession) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	query, err := s.dialect.Rebind(query)
	if err != nil {
		return 0, err
	}
	res, err := s.target().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}

func (s *sqlSession) ExecReturningKey(ctx context.Context, query, key string, args ...any) (int64, error) {
	if s.dialect.Returning() {
		query = dialect.WithReturning(s.dialect, query, key)
	}
	query, err := s.dialect.Rebind(query)
	if err != nil {
		return 0, err
	}

	if s.dialect.Returning() {
		var id int64
		if err := s.target().QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, classify(err)
		}
		return id, nil
	}

	res, err := s.target().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

func (s *sqlSession) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query, err := s.dialect.Rebind(query)
	if err != nil {
		return nil, err
	}
	rows, err := s.target().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (s *sqlSession) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return ErrTxActive
	}
	// database/sql rolls a transaction back when its context ends, and the
	// transaction outlives the call that began it.
	tx, err := s.conn.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return classify(errors.Wrap(err, "begin"))
	}
	s.tx = tx
	return nil
}

func (s *sqlSession) finish(commit bool) error {
	s.mu.Lock()
	tx := s.tx
	s.tx = nil
	s.mu.Unlock()

	if tx == nil {
		return ErrNoTx
	}
	if commit {
		return classify(tx.Commit())
	}
	return classify(tx.Rollback())
}

func (s *sqlSession) Commit() error   { return s.finish(true) }
func (s *sqlSession) Rollback() error { return s.finish(false) }

func (s *sqlSession) InTx() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

func (s *sqlSession) Reset() error {
	if !s.InTx() {
		return nil
	}
	err := s.finish(false)
	if errors.Is(err, sql.ErrTxDone) || errors.Is(err, ErrNoTx) {
		return nil
	}
	return err
}

func (s *sqlSession) Ping(ctx context.Context) error {
	return classify(s.conn.PingContext(ctx))
}

func (s *sqlSession) Close() error {
	resetErr := s.Reset()
	return errors.CombineErrors(resetErr, s.conn.Close())
}
