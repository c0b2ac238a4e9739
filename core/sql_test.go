package core

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveofmymind/simple-db/model"
)

type article struct {
	ID           int64
	Title        string
	Body         string
	CreatedDate  time.Time
	ModifiedDate sql.NullTime
	IsBlind      bool
}

var articleShape = model.Define("article",
	model.Int64("id", func(a *article, v int64) { a.ID = v }),
	model.String("title", func(a *article, v string) { a.Title = v }),
	model.String("body", func(a *article, v string) { a.Body = v }),
	model.Time("createdDate", func(a *article, v time.Time) { a.CreatedDate = v }),
	model.NullTime("modifiedDate", func(a *article, v sql.NullTime) { a.ModifiedDate = v }),
	model.Bool("isBlind", func(a *article, v bool) { a.IsBlind = v }),
)

func TestSQLBuilder(t *testing.T) {
	t.Run("AppendJoinsWithSingleSpace", func(t *testing.T) {
		s := (&SQL{}).
			Append("SELECT id").
			Append("FROM article").
			Append("WHERE id = 1")
		assert.Equal(t, "SELECT id FROM article WHERE id = 1", s.Text())
		assert.Empty(t, s.Args())
	})

	t.Run("ArgsKeepOrder", func(t *testing.T) {
		s := (&SQL{}).
			Append("UPDATE article").
			Append("SET title = ?", "제목 new").
			Append("WHERE id IN (?, ?, ?, ?)", 0, 1, 2, 3)
		assert.Equal(t, "UPDATE article SET title = ? WHERE id IN (?, ?, ?, ?)", s.Text())
		assert.Equal(t, []any{"제목 new", 0, 1, 2, 3}, s.Args())
	})

	t.Run("AppendInExpandsCollection", func(t *testing.T) {
		ids := []int64{2, 3, 1}
		s := (&SQL{}).
			Append("SELECT id FROM article").
			AppendIn("WHERE id IN (?)", ids).
			AppendIn("ORDER BY FIELD (id, ?)", ids)
		assert.Equal(t, "SELECT id FROM article WHERE id IN (?, ?, ?) ORDER BY FIELD (id, ?, ?, ?)", s.Text())
		assert.Equal(t, []any{int64(2), int64(3), int64(1), int64(2), int64(3), int64(1)}, s.Args())
	})

	t.Run("AppendInEdgeCases", func(t *testing.T) {
		s := (&SQL{}).AppendIn("WHERE id IN (?)", []int{})
		assert.Equal(t, "WHERE id IN (NULL)", s.Text())
		assert.Empty(t, s.Args())

		s = (&SQL{}).AppendIn("WHERE id IN (?)", 7)
		assert.Equal(t, "WHERE id IN (?)", s.Text())
		assert.Equal(t, []any{7}, s.Args())

		s = (&SQL{}).AppendIn("WHERE code IN (?)", [2]string{"a", "b"})
		assert.Equal(t, "WHERE code IN (?, ?)", s.Text())
	})

	t.Run("ArgsIsACopy", func(t *testing.T) {
		s := (&SQL{}).Append("WHERE id = ?", 1)
		args := s.Args()
		args[0] = 99
		assert.Equal(t, []any{1}, s.Args())
	})
}

func TestInsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	id, err := db.GenSQL().
		Append("INSERT INTO article (createdDate, modifiedDate, title, body)").
		Append("VALUES (?, ?, ?, ?)", now, now, "제목 new", "내용 new").
		Insert(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestUpdate(t *testing.T) {
	db := newTestDB(t)

	n, err := db.GenSQL().
		Append("UPDATE article").
		Append("SET title = ?", "제목 new").
		Append("WHERE id IN (?, ?, ?, ?)", 0, 1, 2, 3).
		Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)

	n, err := db.GenSQL().
		Append("DELETE").
		Append("FROM article").
		Append("WHERE id IN (?, ?, ?)", 0, 1, 3).
		Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSelectScalars(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("Datetime", func(t *testing.T) {
		got, err := db.GenSQL().Append("SELECT datetime('now', 'localtime')").SelectDatetime(ctx)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), got, 2*time.Second)
	})

	t.Run("Long", func(t *testing.T) {
		id, err := db.GenSQL().Append("SELECT id").Append("FROM article").Append("WHERE id = 1").SelectLong(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})

	t.Run("String", func(t *testing.T) {
		title, err := db.GenSQL().Append("SELECT title").Append("FROM article").Append("WHERE id = 1").SelectString(ctx)
		require.NoError(t, err)
		assert.Equal(t, "제목1", title)
	})

	t.Run("Boolean", func(t *testing.T) {
		blind, err := db.GenSQL().Append("SELECT isBlind FROM article WHERE id = ?", 5).SelectBoolean(ctx)
		require.NoError(t, err)
		assert.True(t, blind)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := db.GenSQL().Append("SELECT id FROM article WHERE id = ?", 100).SelectLong(ctx)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		_, err = db.GenSQL().Append("SELECT * FROM article WHERE id = ?", 100).SelectRow(ctx)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("Longs", func(t *testing.T) {
		ids, err := db.GenSQL().
			Append("SELECT id FROM article").
			AppendIn("WHERE id IN (?)", []int64{2, 3, 1}).
			Append("ORDER BY id DESC").
			SelectLongs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 2, 1}, ids)
	})
}

func TestSelectRow(t *testing.T) {
	db := newTestDB(t)

	row, err := db.GenSQL().Append("SELECT * FROM article WHERE id = 1").SelectRow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, "제목1", row["title"])
	assert.Equal(t, "내용1", row["body"])
	assert.IsType(t, time.Time{}, row["createdDate"])
	assert.IsType(t, time.Time{}, row["modifiedDate"])
	assert.Equal(t, false, row["isBlind"])
}

func TestSelectArticles(t *testing.T) {
	db := newTestDB(t)

	articles, err := SelectAs(context.Background(),
		db.GenSQL().Append("SELECT * FROM article ORDER BY id ASC LIMIT 3"), articleShape)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	for i, a := range articles {
		id := int64(i + 1)
		assert.Equal(t, id, a.ID)
		assert.Equal(t, fmt.Sprintf("제목%d", id), a.Title)
		assert.Equal(t, fmt.Sprintf("내용%d", id), a.Body)
		assert.False(t, a.CreatedDate.IsZero())
		assert.True(t, a.ModifiedDate.Valid)
		assert.False(t, a.IsBlind)
	}

	one, err := SelectOneAs(context.Background(),
		db.GenSQL().Append("SELECT * FROM article WHERE id = ?", 6), articleShape)
	require.NoError(t, err)
	assert.True(t, one.IsBlind)
}

func TestSelectBind(t *testing.T) {
	db := newTestDB(t)

	count, err := db.GenSQL().
		Append("SELECT COUNT(*)").
		Append("FROM article").
		Append("WHERE id BETWEEN ? AND ?", 1, 3).
		Append("AND title LIKE '%' || ? || '%'", "제목").
		SelectLong(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSelectIn(t *testing.T) {
	db := newTestDB(t)

	count, err := db.GenSQL().
		Append("SELECT COUNT(*)").
		Append("FROM article").
		AppendIn("WHERE id IN (?)", []int64{1, 2, 3}).
		SelectLong(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestStatementRunsOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := db.GenSQL().Append("SELECT COUNT(*) FROM article")
	n, err := s.SelectLong(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	_, err = s.SelectLong(ctx)
	assert.ErrorIs(t, err, ErrStatementUsed)
	_, err = s.Update(ctx)
	assert.ErrorIs(t, err, ErrStatementUsed)
}

func TestRun(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n, err := db.Run(ctx, "UPDATE article SET isBlind = ? WHERE id <= ?", true, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = db.Run(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidSQL)

	_, err = db.Run(ctx, "UPDATE missing_table SET x = 1")
	require.Error(t, err)
	assert.Equal(t, 3, db.AvailableCount(), "a failed statement still releases its connection")
}

func TestDuplicateKey(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GenSQL().
		Append("INSERT INTO article (id, createdDate, modifiedDate, title, body)").
		Append("VALUES (?, ?, ?, ?, ?)", 1, time.Now(), time.Now(), "dup", "dup").
		Insert(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey), "got %v", err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, true, normalize([]byte{1}, "BIT"))
	assert.Equal(t, false, normalize([]byte{0}, "BIT"))
	assert.Equal(t, true, normalize([]byte("t"), "BOOL"))
	assert.Equal(t, int64(42), normalize([]byte("42"), "BIGINT"))
	assert.Equal(t, uint64(42), normalize([]byte("42"), "UNSIGNED INT"))
	assert.Equal(t, 1.5, normalize([]byte("1.5"), "DOUBLE"))
	assert.Equal(t, "12.30", normalize([]byte("12.30"), "DECIMAL"))
	assert.Equal(t, "제목1", normalize([]byte("제목1"), "VARCHAR"))
	assert.Equal(t, []byte{0xff}, normalize([]byte{0xff}, "BLOB"))
	assert.Equal(t, "2026-01-15 16:08:38", normalize([]byte("2026-01-15 16:08:38"), "DATETIME"))
	assert.Nil(t, normalize([]byte("0000-00-00 00:00:00"), "DATETIME"))
	assert.Nil(t, normalize([]byte(""), "DATE"))
	assert.Equal(t, int64(3), normalize(int64(3), "INTEGER"))
	assert.Nil(t, normalize(nil, "TEXT"))
}
