package core

import (
	"context"
	"io"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/waveofmymind/simple-db/dialect"
	"github.com/waveofmymind/simple-db/logger"
	"github.com/waveofmymind/simple-db/pool"
	"github.com/waveofmymind/simple-db/store"
)

// DB is the main entry point. It owns the session pool and runs statements
// through the middleware chain.
type DB struct {
	store     *store.Store
	pool      *pool.Pool
	dialect   dialect.Dialect
	keyColumn string
	logCloser io.Closer

	mu         sync.RWMutex
	logger     logger.Logger
	devMode    bool
	middleware []Middleware
}

// Open initializes a new DB and eagerly opens opts.PoolSize sessions.
func Open(opts *Options) (*DB, error) {
	return OpenContext(context.Background(), opts)
}

// OpenContext is Open with a context bounding session creation.
func OpenContext(ctx context.Context, opts *Options) (*DB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	d, ok := dialect.Get(opts.Driver)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDialect, "%s", opts.Driver)
	}
	keyColumn := opts.KeyColumn
	if keyColumn == "" {
		keyColumn = "id"
	}

	l, closer, err := opts.buildLogger()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(d, opts.params(), opts.PoolSize)
	if err != nil {
		closeQuietly(closer)
		return nil, err
	}

	p, err := pool.New(ctx, st.Open, pool.Options{
		Size:          opts.PoolSize,
		IdleTimeout:   opts.IdleTimeout,
		CheckInterval: opts.CheckInterval,
		Clock:         opts.Clock,
		Logger:        l,
	})
	if err != nil {
		_ = st.Close()
		closeQuietly(closer)
		return nil, err
	}

	l.Info("simpledb: %s pool ready with %d sessions", d.Name(), opts.PoolSize)
	return &DB{
		store:     st,
		pool:      p,
		dialect:   d,
		keyColumn: keyColumn,
		logCloser: closer,
		logger:    l,
		devMode:   opts.DevMode,
	}, nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

// Close shuts middleware down, then closes every session.
func (db *DB) Close() error {
	db.mu.RLock()
	mws := db.middleware
	l := db.logger
	db.mu.RUnlock()

	var err error
	for i := len(mws) - 1; i >= 0; i-- {
		err = errors.CombineErrors(err, mws[i].Shutdown())
	}
	err = errors.CombineErrors(err, db.pool.Close())
	err = errors.CombineErrors(err, db.store.Close())
	_ = l.Sync()
	closeQuietly(db.logCloser)
	return err
}

// Use initializes and appends middleware. The first registered middleware
// is the outermost.
func (db *DB) Use(mws ...Middleware) error {
	for _, mw := range mws {
		if err := mw.Init(db); err != nil {
			return errors.Wrapf(err, "init middleware %s", mw.Name())
		}
		db.mu.Lock()
		db.middleware = append(db.middleware, mw)
		db.mu.Unlock()
	}
	return nil
}

// SetLogger sets a custom logger for the DB.
func (db *DB) SetLogger(l logger.Logger) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.logger = l
}

// Logger returns the DB logger.
func (db *DB) Logger() logger.Logger {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.logger
}

// SetDevMode toggles statement logging before execution.
func (db *DB) SetDevMode(on bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.devMode = on
}

// Dialect returns the dialect in use.
func (db *DB) Dialect() dialect.Dialect {
	return db.dialect
}

// Pool exposes the session pool.
func (db *DB) Pool() *pool.Pool {
	return db.pool
}

// Acquire holds a connection for the owner carried by ctx until Release.
// Statements built with On(conn) run on it.
func (db *DB) Acquire(ctx context.Context) (*pool.Conn, error) {
	return db.pool.Acquire(ctx)
}

// Release gives a held connection back.
func (db *DB) Release(conn *pool.Conn) {
	db.pool.Release(conn)
}

// AvailableCount returns the number of idle connections.
func (db *DB) AvailableCount() int {
	return db.pool.Available()
}

// Ping checks one pooled session.
func (db *DB) Ping(ctx context.Context) error {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer db.pool.Release(conn)

	sess, err := conn.Session()
	if err != nil {
		return err
	}
	return sess.Ping(ctx)
}

// GenSQL starts a new statement.
func (db *DB) GenSQL() *SQL {
	return &SQL{db: db}
}

// Run executes a one-shot update statement and returns the affected rows.
func (db *DB) Run(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := db.execute(ctx, &Statement{Kind: KindUpdate, SQL: query, Args: args})
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
