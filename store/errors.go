package store

import (
	"database/sql/driver"
	"net"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrDuplicateKey is returned when a unique constraint is violated
	ErrDuplicateKey = errors.New("store: duplicate key violation")
	// ErrForeignKey is returned when a foreign key constraint is violated
	ErrForeignKey = errors.New("store: foreign key violation")
	// ErrConnectionFailed is returned when the session cannot talk to the store
	ErrConnectionFailed = errors.New("store: connection failed")
)

// classify marks driver errors with the store taxonomy. The driver error
// stays in the chain so callers can still inspect it.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if mark := kindOf(err); mark != nil {
		return errors.Mark(err, mark)
	}
	return err
}

func kindOf(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return ErrDuplicateKey
		case 1216, 1217, 1451, 1452:
			return ErrForeignKey
		}
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgCode(string(pqErr.Code))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgCode(pgErr.Code)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrDuplicateKey
		case sqlite3.ErrConstraintForeignKey:
			return ErrForeignKey
		}
		return nil
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.As(err, &netErr) {
		return ErrConnectionFailed
	}
	return nil
}

func pgCode(code string) error {
	switch code {
	case "23505":
		return ErrDuplicateKey
	case "23503":
		return ErrForeignKey
	}
	if len(code) == 5 && code[:2] == "08" {
		return ErrConnectionFailed
	}
	return nil
}
