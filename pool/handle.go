package pool

import (
	"time"

	"github.com/waveofmymind/simple-db/store"
)

// Handle is one pooled session. All mutable fields are guarded by the
// owning pool's lock.
type Handle struct {
	id      int
	session store.Session

	checkedOut bool
	owner      Owner
	holds      int
	lastUsedAt time.Time
	// generation changes every time the handle goes back to the pool,
	// which invalidates every lease taken before.
	generation uint64
}

// ID is the stable index of the handle inside its pool.
func (h *Handle) ID() int {
	return h.id
}

// Conn is a lease on a checked-out handle.
type Conn struct {
	pool       *Pool
	handle     *Handle
	generation uint64
	released   bool
}

// ID returns the id of the leased handle.
func (c *Conn) ID() int {
	return c.handle.id
}

// Session returns the leased session, or ErrRevoked when the lease no
// longer matches the handle checkout.
func (c *Conn) Session() (store.Session, error) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	if !c.liveLocked() {
		return nil, ErrRevoked
	}
	return c.handle.session, nil
}

// Valid reports whether the lease can still be used.
func (c *Conn) Valid() bool {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	return c.liveLocked()
}

func (c *Conn) liveLocked() bool {
	return !c.released && c.handle.checkedOut && c.handle.generation == c.generation
}
