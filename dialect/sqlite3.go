package dialect

import (
	"fmt"
	"net/url"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite dialect implementation. Database is the file path.
type sqlite3 struct{}

func init() {
	Register(&sqlite3{})
}

func (d *sqlite3) Name() string       { return "sqlite3" }
func (d *sqlite3) DriverName() string { return "sqlite3" }
func (d *sqlite3) Returning() bool    { return false }

func (d *sqlite3) DSN(p Params) (string, error) {
	if p.Database == "" {
		return "", errors.New("sqlite3: database path is required")
	}
	q := url.Values{}
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "WAL")
	for k, v := range p.Extra {
		q.Set(k, v)
	}
	return "file:" + p.Database + "?" + q.Encode(), nil
}

func (d *sqlite3) Rebind(query string) (string, error) {
	return squirrel.Question.ReplacePlaceholders(query)
}

func (d *sqlite3) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}
