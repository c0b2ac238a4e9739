// Package store opens dedicated backing-store sessions on top of database/sql.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/waveofmymind/simple-db/dialect"
)

// Params describes how to reach the backing store.
type Params = dialect.Params

// Store hands out sessions pinned from one *sql.DB.
type Store struct {
	db      *sql.DB
	dialect dialect.Dialect
}

// Open prepares a store able to hold size concurrent sessions.
// No connection is made until the first session is opened.
func Open(d dialect.Dialect, p Params, size int) (*Store, error) {
	if size <= 0 {
		return nil, errors.Newf("store: invalid session count %d", size)
	}
	dsn, err := d.DSN(p)
	if err != nil {
		return nil, errors.Wrap(err, "store: build dsn")
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "store: open %s", d.DriverName())
	}

	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	return &Store{db: db, dialect: d}, nil
}

// Dialect returns the dialect the store was opened with.
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

// Open opens exactly one dedicated session and verifies it is alive.
func (s *Store) Open(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, classify(errors.Wrap(err, "store: open session"))
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, classify(errors.Wrap(err, "store: ping session"))
	}
	return &sqlSession{conn: conn, dialect: s.dialect}, nil
}

// Close closes the underlying *sql.DB. Sessions must be closed first.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the store is reachable within timeout.
func (s *Store) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return classify(s.db.PingContext(ctx))
}
