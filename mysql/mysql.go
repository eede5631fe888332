// Package mysql provides the MySQL dialect for relq.
package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the mysql driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/zoobzio/relq"
)

// Dialect implements the MySQL dialect: backtick-quoted identifiers,
// ? placeholders, no RETURNING, and FOR UPDATE / FOR SHARE locking.
type Dialect struct{}

var _ relq.Dialect = (*Dialect)(nil)

// New creates the MySQL dialect.
func New() *Dialect {
	return &Dialect{}
}

// Name identifies the dialect.
func (d *Dialect) Name() string { return "mysql" }

// QuoteIdent quotes an identifier with backticks. Embedded backticks are
// escaped by doubling.
func (d *Dialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Placeholder returns the bind placeholder; MySQL is purely positional.
func (d *Dialect) Placeholder(n int) string {
	return "?"
}

// Pagination renders LIMIT and OFFSET. MySQL has no bare OFFSET, so an
// offset without a limit renders the documented max-row-count idiom.
func (d *Dialect) Pagination(limit, offset *int, _ bool) string {
	var sb strings.Builder
	switch {
	case limit != nil:
		fmt.Fprintf(&sb, " LIMIT %d", *limit)
	case offset != nil:
		sb.WriteString(" LIMIT 18446744073709551615")
	}
	if offset != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *offset)
	}
	return sb.String()
}

// SupportsReturning reports RETURNING support.
func (d *Dialect) SupportsReturning() bool { return false }

// SupportsRowLocking reports FOR UPDATE / FOR SHARE support.
func (d *Dialect) SupportsRowLocking() bool { return true }

// Open opens a connection pool through the go-sql-driver/mysql driver.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("mysql", dsn)
}
