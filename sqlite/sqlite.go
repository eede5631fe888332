// Package sqlite provides the SQLite dialect for relq.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the pure-Go sqlite driver.
	_ "modernc.org/sqlite"

	"github.com/zoobzio/relq"
)

// Dialect implements the SQLite dialect: double-quoted identifiers,
// ? placeholders, RETURNING, and no row locking.
type Dialect struct{}

var _ relq.Dialect = (*Dialect)(nil)

// New creates the SQLite dialect.
func New() *Dialect {
	return &Dialect{}
}

// Name identifies the dialect.
func (d *Dialect) Name() string { return "sqlite" }

// QuoteIdent quotes an identifier with double quotes. Embedded quotes are
// escaped by doubling.
func (d *Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns the bind placeholder; SQLite is purely positional.
func (d *Dialect) Placeholder(n int) string {
	return "?"
}

// Pagination renders LIMIT and OFFSET. SQLite has no bare OFFSET, so an
// offset without a limit renders LIMIT -1.
func (d *Dialect) Pagination(limit, offset *int, _ bool) string {
	var sb strings.Builder
	switch {
	case limit != nil:
		fmt.Fprintf(&sb, " LIMIT %d", *limit)
	case offset != nil:
		sb.WriteString(" LIMIT -1")
	}
	if offset != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *offset)
	}
	return sb.String()
}

// SupportsReturning reports RETURNING support.
func (d *Dialect) SupportsReturning() bool { return true }

// SupportsRowLocking reports FOR UPDATE / FOR SHARE support. SQLite locks
// the whole database, not rows.
func (d *Dialect) SupportsRowLocking() bool { return false }

// Open opens a connection through the modernc sqlite driver.
// Use ":memory:" for an in-memory database.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("sqlite", dsn)
}
