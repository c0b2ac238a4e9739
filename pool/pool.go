// Package pool keeps a fixed set of backing-store sessions and lends them
// out to owners, taking back the ones held for too long.
package pool

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/waveofmymind/simple-db/logger"
	"github.com/waveofmymind/simple-db/store"
)

const (
	DefaultIdleTimeout   = 30 * time.Second
	DefaultCheckInterval = 10 * time.Second
)

// Opener opens one backing-store session.
type Opener func(ctx context.Context) (store.Session, error)

// Options configure a pool.
type Options struct {
	// Size is the fixed number of sessions opened up front.
	Size int
	// IdleTimeout is how long a handle may stay checked out without a new
	// Acquire before it is taken back.
	IdleTimeout time.Duration
	// CheckInterval is the period of the reclamation loop.
	CheckInterval time.Duration
	Clock         clockwork.Clock
	Logger        logger.Logger
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Capacity  int
	Idle      int
	InUse     int
	Waiting   int
	Reclaimed uint64
}

type waiter struct {
	owner Owner
	ready chan *Conn
}

// Pool is a fixed-size session pool with owner affinity.
type Pool struct {
	size          int
	idleTimeout   time.Duration
	checkInterval time.Duration
	clock         clockwork.Clock
	log           logger.Logger

	mu        sync.Mutex
	handles   []*Handle
	idle      []*Handle
	waiters   *list.List
	owners    affinity
	reclaimed uint64
	closed    bool

	stop chan struct{}
	done chan struct{}
}

// New opens opts.Size sessions and starts the reclamation loop. If any
// session fails to open, the ones already opened are closed and the error
// is marked with ErrInitFailed.
func New(ctx context.Context, open Opener, opts Options) (*Pool, error) {
	if opts.Size <= 0 {
		return nil, errors.Mark(errors.Newf("pool: invalid size %d", opts.Size), ErrInitFailed)
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	sessions := make([]store.Session, opts.Size)
	g, gctx := errgroup.WithContext(ctx)
	for i := range sessions {
		g.Go(func() error {
			s, err := open(gctx)
			if err != nil {
				return errors.Wrapf(err, "open session %d", i)
			}
			sessions[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, s := range sessions {
			if s != nil {
				_ = s.Close()
			}
		}
		return nil, errors.Mark(errors.Wrap(err, "pool: init"), ErrInitFailed)
	}

	p := &Pool{
		size:          opts.Size,
		idleTimeout:   opts.IdleTimeout,
		checkInterval: opts.CheckInterval,
		clock:         opts.Clock,
		log:           opts.Logger,
		handles:       make([]*Handle, opts.Size),
		idle:          make([]*Handle, 0, opts.Size),
		waiters:       list.New(),
		owners:        make(affinity),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for i, s := range sessions {
		h := &Handle{id: i, session: s}
		p.handles[i] = h
		p.idle = append(p.idle, h)
	}

	go p.reclaimLoop()
	p.log.Debug("pool: opened %d sessions", p.size)
	return p, nil
}

// Acquire returns a lease on a handle. When the owner carried by ctx
// already holds a handle, the same handle is returned again. Otherwise
// Acquire blocks until a handle is free; waiters are served in arrival
// order. Only ctx or Close end the wait.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	owner, _ := OwnerFrom(ctx)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if h := p.owners.lookup(owner); h != nil {
		h.holds++
		h.lastUsedAt = p.clock.Now()
		c := &Conn{pool: p, handle: h, generation: h.generation}
		p.mu.Unlock()
		return c, nil
	}
	if len(p.idle) > 0 && p.waiters.Len() == 0 {
		h := p.idle[0]
		p.idle = p.idle[1:]
		c := p.checkoutLocked(h, owner)
		p.mu.Unlock()
		return c, nil
	}
	if err := ctx.Err(); err != nil {
		p.mu.Unlock()
		return nil, err
	}

	w := &waiter{owner: owner, ready: make(chan *Conn, 1)}
	elem := p.waiters.PushBack(w)
	p.mu.Unlock()

	select {
	case c, ok := <-w.ready:
		if !ok {
			return nil, ErrClosed
		}
		return c, nil
	case <-ctx.Done():
		p.mu.Lock()
		defer p.mu.Unlock()
		p.waiters.Remove(elem)
		select {
		case c, ok := <-w.ready:
			if ok && c.liveLocked() {
				// Handed over while giving up; pass it on.
				c.released = true
				p.detachLocked(c.handle)
				p.putLocked(c.handle)
			}
		default:
		}
		return nil, ctx.Err()
	}
}

// Release gives a lease back. The handle returns to the pool when its last
// hold is released. Nil, revoked or already released leases are ignored.
func (p *Pool) Release(c *Conn) {
	if c == nil || c.pool != p {
		return
	}

	p.mu.Lock()
	if !c.liveLocked() {
		p.mu.Unlock()
		return
	}
	c.released = true
	h := c.handle
	h.holds--
	if h.holds > 0 {
		p.mu.Unlock()
		return
	}
	p.detachLocked(h)
	p.mu.Unlock()

	p.recycle(h)
}

// Holds reports whether the owner carried by ctx currently holds a handle.
// An Acquire under the same ctx would return that handle again.
func (p *Pool) Holds(ctx context.Context) bool {
	owner, ok := OwnerFrom(ctx)
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && p.owners.lookup(owner) != nil
}

// Available returns the number of idle handles.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Capacity:  p.size,
		Idle:      len(p.idle),
		Waiting:   p.waiters.Len(),
		Reclaimed: p.reclaimed,
	}
	for _, h := range p.handles {
		if h.checkedOut {
			s.InUse++
		}
	}
	return s
}

// Close stops the reclamation loop, fails pending acquirers with ErrClosed,
// revokes every lease and closes every session.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for e := p.waiters.Front(); e != nil; {
		next := e.Next()
		close(p.waiters.Remove(e).(*waiter).ready)
		e = next
	}
	for _, h := range p.handles {
		if h.checkedOut {
			p.detachLocked(h)
		}
	}
	p.idle = nil
	handles := p.handles
	p.mu.Unlock()

	close(p.stop)
	<-p.done

	var g errgroup.Group
	for _, h := range handles {
		g.Go(h.session.Close)
	}
	return g.Wait()
}

func (p *Pool) checkoutLocked(h *Handle, owner Owner) *Conn {
	h.checkedOut = true
	h.owner = owner
	h.holds = 1
	h.lastUsedAt = p.clock.Now()
	p.owners.bind(owner, h)
	return &Conn{pool: p, handle: h, generation: h.generation}
}

// detachLocked ends the current checkout. The handle is then in flight
// until putLocked hands it to a waiter or the idle set.
func (p *Pool) detachLocked(h *Handle) {
	p.owners.unbind(h.owner, h)
	h.checkedOut = false
	h.owner = ""
	h.holds = 0
	h.lastUsedAt = time.Time{}
	h.generation++
}

func (p *Pool) putLocked(h *Handle) {
	if p.closed {
		return
	}
	if e := p.waiters.Front(); e != nil {
		w := p.waiters.Remove(e).(*waiter)
		w.ready <- p.checkoutLocked(h, w.owner)
		return
	}
	p.idle = append(p.idle, h)
}

// recycle resets a detached handle outside the lock and puts it back.
func (p *Pool) recycle(h *Handle) {
	if err := h.session.Reset(); err != nil {
		p.log.Warn("pool: reset session %d: %v", h.id, err)
	}
	p.mu.Lock()
	p.putLocked(h)
	p.mu.Unlock()
}
