package pool

import "github.com/cockroachdb/errors"

var (
	// ErrClosed is returned by Acquire once the pool is closed
	ErrClosed = errors.New("pool: closed")
	// ErrRevoked is returned when a lease outlived its handle checkout,
	// usually because the reclamation loop took the handle back
	ErrRevoked = errors.New("pool: connection lease revoked")
	// ErrInitFailed wraps the session open error that aborted New
	ErrInitFailed = errors.New("pool: initialization failed")
)
