package dialect

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	driver "github.com/go-sql-driver/mysql"
)

// MySQL dialect implementation
type mysql struct{}

func init() {
	Register(&mysql{})
}

func (d *mysql) Name() string       { return "mysql" }
func (d *mysql) DriverName() string { return "mysql" }
func (d *mysql) Returning() bool    { return false }

func (d *mysql) DSN(p Params) (string, error) {
	if p.Database == "" {
		return "", errors.New("mysql: database name is required")
	}
	port := p.Port
	if port == 0 {
		port = 3306
	}
	host := p.Host
	if host == "" {
		host = "127.0.0.1"
	}

	cfg := driver.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = p.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	if len(p.Extra) > 0 {
		cfg.Params = make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

func (d *mysql) Rebind(query string) (string, error) {
	return squirrel.Question.ReplacePlaceholders(query)
}

func (d *mysql) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}
