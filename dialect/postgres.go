package dialect

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// PostgreSQL dialect implementation. The same dialect is registered
// twice: "postgres" opens lib/pq, "pgx" opens the pgx stdlib driver.
type postgres struct {
	name   string
	driver string
}

func init() {
	Register(&postgres{name: "postgres", driver: "postgres"})
	Register(&postgres{name: "pgx", driver: "pgx"})
}

func (d *postgres) Name() string       { return d.name }
func (d *postgres) DriverName() string { return d.driver }
func (d *postgres) Returning() bool    { return true }

func (d *postgres) DSN(p Params) (string, error) {
	if p.Database == "" {
		return "", errors.Newf("%s: database name is required", d.name)
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	host := p.Host
	if host == "" {
		host = "localhost"
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + p.Database,
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	q := url.Values{}
	for k, v := range p.Extra {
		q.Set(k, v)
	}
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Rebind numbers every '?' as $1, $2, ... including ones inside string
// literals. Write '??' for a literal '?', such as the jsonb ? operator.
func (d *postgres) Rebind(query string) (string, error) {
	return squirrel.Dollar.ReplacePlaceholders(query)
}

func (d *postgres) Quote(name string) string {
	return fmt.Sprintf("\"%s\"", name)
}
