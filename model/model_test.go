package model

import (
	"database/sql"
	"strings"
	"testing"
	"time"
)

type article struct {
	ID           int64
	Title        string
	Body         string
	CreatedDate  time.Time
	ModifiedDate sql.NullTime
	IsBlind      bool
	Score        float64
	Views        int
}

var articleShape = Define("article",
	Int64("id", func(a *article, v int64) { a.ID = v }),
	String("title", func(a *article, v string) { a.Title = v }),
	String("body", func(a *article, v string) { a.Body = v }),
	Time("createdDate", func(a *article, v time.Time) { a.CreatedDate = v }),
	NullTime("modifiedDate", func(a *article, v sql.NullTime) { a.ModifiedDate = v }),
	Bool("isBlind", func(a *article, v bool) { a.IsBlind = v }),
	Float64("score", func(a *article, v float64) { a.Score = v }),
	Int("views", func(a *article, v int) { a.Views = v }),
)

func TestShapeMap(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)

	t.Run("NativeValues", func(t *testing.T) {
		a, err := articleShape.Map(Row{
			"id":           int64(1),
			"title":        "제목1",
			"body":         "내용1",
			"createdDate":  created,
			"modifiedDate": created,
			"isBlind":      false,
			"score":        4.5,
			"views":        int64(7),
		})
		if err != nil {
			t.Fatalf("Map failed: %v", err)
		}
		if a.ID != 1 || a.Title != "제목1" || a.Body != "내용1" || a.IsBlind || a.Score != 4.5 || a.Views != 7 {
			t.Errorf("unexpected record: %+v", a)
		}
		if !a.CreatedDate.Equal(created) || !a.ModifiedDate.Valid {
			t.Errorf("unexpected times: %v %v", a.CreatedDate, a.ModifiedDate)
		}
	})

	t.Run("RawDriverValues", func(t *testing.T) {
		a, err := articleShape.Map(Row{
			"ID":          []byte("4"),
			"TITLE":       []byte("제목4"),
			"createdDate": []byte("2024-03-01 10:00:00"),
			"isBlind":     []byte{1},
			"score":       []byte("1.25"),
		})
		if err != nil {
			t.Fatalf("Map failed: %v", err)
		}
		if a.ID != 4 || a.Title != "제목4" || !a.IsBlind || a.Score != 1.25 {
			t.Errorf("unexpected record: %+v", a)
		}
		if !a.CreatedDate.Equal(created) {
			t.Errorf("createdDate = %v, want %v", a.CreatedDate, created)
		}
	})

	t.Run("NullAndUnknownColumns", func(t *testing.T) {
		a, err := articleShape.Map(Row{
			"id":           int64(2),
			"modifiedDate": nil,
			"extra":        "ignored",
		})
		if err != nil {
			t.Fatalf("Map failed: %v", err)
		}
		if a.ID != 2 || a.ModifiedDate.Valid {
			t.Errorf("unexpected record: %+v", a)
		}
	})

	t.Run("ConversionErrorNamesColumn", func(t *testing.T) {
		_, err := articleShape.Map(Row{"id": "not a number"})
		if err == nil || !strings.Contains(err.Error(), "column id") {
			t.Fatalf("expected column error, got %v", err)
		}
	})
}

func TestShapeMapAll(t *testing.T) {
	rows := []Row{{"id": int64(1)}, {"id": int64(2)}, {"id": int64(3)}}
	got, err := articleShape.MapAll(rows)
	if err != nil {
		t.Fatalf("MapAll failed: %v", err)
	}
	if len(got) != 3 || got[0].ID != 1 || got[2].ID != 3 {
		t.Errorf("unexpected records: %+v", got)
	}

	if _, err := articleShape.MapAll([]Row{{"id": int64(1)}, {"views": "x"}}); err == nil {
		t.Error("expected error for bad row")
	}
}

func TestDefine(t *testing.T) {
	if articleShape.Name() != "article" {
		t.Errorf("Name() = %s", articleShape.Name())
	}
	cols := articleShape.Columns()
	if len(cols) != 8 || cols[0] != "body" {
		t.Errorf("Columns() = %v", cols)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate column")
		}
	}()
	Define("dup",
		Int64("id", func(a *article, v int64) { a.ID = v }),
		Int64("ID", func(a *article, v int64) { a.ID = v }),
	)
}

func TestConverters(t *testing.T) {
	if n, err := ToInt64(true); err != nil || n != 1 {
		t.Errorf("ToInt64(true) = %d, %v", n, err)
	}
	if b, err := ToBool(int64(0)); err != nil || b {
		t.Errorf("ToBool(0) = %v, %v", b, err)
	}
	if b, err := ToBool([]byte("true")); err != nil || !b {
		t.Errorf("ToBool(\"true\") = %v, %v", b, err)
	}
	if s, err := ToString([]byte("abc")); err != nil || s != "abc" {
		t.Errorf("ToString = %q, %v", s, err)
	}
	for in, want := range map[string]int64{"010": 10, " 42 ": 42, "-7": -7, "12.00": 12} {
		if n, err := ToInt64(in); err != nil || n != want {
			t.Errorf("ToInt64(%q) = %d, %v; want %d", in, n, err, want)
		}
	}
	if n, err := ToInt64([]byte("0010")); err != nil || n != 10 {
		t.Errorf("ToInt64([]byte(\"0010\")) = %d, %v", n, err)
	}
	for _, in := range []string{"0x1F", "0o17", "0b101", "1_000"} {
		if n, err := ToInt64(in); err == nil {
			t.Errorf("ToInt64(%q) = %d, want error", in, n)
		}
	}
	if _, err := ToBytes(42); err == nil {
		t.Error("ToBytes(42) should fail")
	}
}
