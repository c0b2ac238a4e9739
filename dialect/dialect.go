package dialect

import (
	"sort"
)

// Params describes how to reach a backing store.
type Params struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// Extra driver parameters appended to the DSN.
	Extra map[string]string
}

// Dialect represents the database-specific parts of statement execution.
// Each supported database registers one implementation under its name.
type Dialect interface {
	// Name is the registry key, also used in configuration.
	Name() string
	// DriverName is the database/sql driver the dialect opens.
	DriverName() string
	// DSN builds the driver data source name from connection params.
	DSN(p Params) (string, error)
	// Rebind rewrites '?' placeholders into the dialect's own format.
	Rebind(query string) (string, error)
	// Quote wraps an identifier in database-specific quotes.
	Quote(name string) string
	// Returning reports whether generated keys must be read through a
	// RETURNING clause instead of LastInsertId.
	Returning() bool
}

var dialects = make(map[string]Dialect)

// Register registers a new dialect under its name
func Register(d Dialect) {
	dialects[d.Name()] = d
}

// Get retrieves a registered dialect by name
func Get(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}

// Names lists the registered dialects in sorted order.
func Names() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithReturning appends a RETURNING clause for key to an insert statement.
func WithReturning(d Dialect, query, key string) string {
	return query + " RETURNING " + d.Quote(key)
}
