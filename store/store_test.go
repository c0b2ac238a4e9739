package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveofmymind/simple-db/dialect"
)

func openSQLite(t *testing.T, size int) *Store {
	t.Helper()
	d, ok := dialect.Get("sqlite3")
	require.True(t, ok)

	s, err := Open(d, Params{Database: filepath.Join(t.TempDir(), "store.db")}, size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openSession(t *testing.T, s *Store) Session {
	t.Helper()
	sess, err := s.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestOpenRejectsInvalidSize(t *testing.T) {
	d, _ := dialect.Get("sqlite3")
	_, err := Open(d, Params{Database: "x.db"}, 0)
	assert.Error(t, err)
}

func TestSessionExecAndKeys(t *testing.T) {
	ctx := context.Background()
	sess := openSession(t, openSQLite(t, 1))

	_, err := sess.Exec(ctx, "CREATE TABLE note (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT)")
	require.NoError(t, err)

	id, err := sess.ExecReturningKey(ctx, "INSERT INTO note (body) VALUES (?)", "id", "first")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = sess.ExecReturningKey(ctx, "INSERT INTO note (body) VALUES (?)", "id", "second")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	n, err := sess.Exec(ctx, "UPDATE note SET body = ? WHERE id > ?", "edited", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := sess.Query(ctx, "SELECT body FROM note ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	var bodies []string
	for rows.Next() {
		var b string
		require.NoError(t, rows.Scan(&b))
		bodies = append(bodies, b)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"edited", "edited"}, bodies)
}

func TestSessionTransaction(t *testing.T) {
	ctx := context.Background()
	sess := openSession(t, openSQLite(t, 1))

	_, err := sess.Exec(ctx, "CREATE TABLE note (id INTEGER PRIMARY KEY, body TEXT)")
	require.NoError(t, err)

	assert.ErrorIs(t, sess.Commit(), ErrNoTx)

	require.NoError(t, sess.Begin(ctx))
	assert.True(t, sess.InTx())
	assert.ErrorIs(t, sess.Begin(ctx), ErrTxActive)

	_, err = sess.Exec(ctx, "INSERT INTO note (id, body) VALUES (1, 'kept')")
	require.NoError(t, err)
	require.NoError(t, sess.Commit())
	assert.False(t, sess.InTx())

	require.NoError(t, sess.Begin(ctx))
	_, err = sess.Exec(ctx, "INSERT INTO note (id, body) VALUES (2, 'dropped')")
	require.NoError(t, err)

	// An open transaction left behind by an owner is discarded on reset.
	require.NoError(t, sess.Reset())
	assert.False(t, sess.InTx())
	require.NoError(t, sess.Reset())

	rows, err := sess.Query(ctx, "SELECT COUNT(*) FROM note")
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var count int
	require.NoError(t, rows.Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDuplicateKeyIsClassified(t *testing.T) {
	ctx := context.Background()
	sess := openSession(t, openSQLite(t, 1))

	_, err := sess.Exec(ctx, "CREATE TABLE note (id INTEGER PRIMARY KEY, body TEXT)")
	require.NoError(t, err)
	_, err = sess.Exec(ctx, "INSERT INTO note (id, body) VALUES (?, ?)", 1, "a")
	require.NoError(t, err)

	_, err = sess.Exec(ctx, "INSERT INTO note (id, body) VALUES (?, ?)", 1, "b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey), "got %v", err)
	assert.False(t, errors.Is(err, ErrForeignKey))
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, 2)
	a := openSession(t, s)
	b := openSession(t, s)

	require.NoError(t, a.Ping(ctx))
	require.NoError(t, b.Ping(ctx))

	require.NoError(t, a.Begin(ctx))
	assert.True(t, a.InTx())
	assert.False(t, b.InTx())
	require.NoError(t, a.Rollback())
}
