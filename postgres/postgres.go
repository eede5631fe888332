// Package postgres provides the PostgreSQL dialect for relq.
package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the pgx stdlib driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/zoobzio/relq"
)

// Dialect implements the PostgreSQL dialect: double-quoted identifiers,
// $N placeholders, RETURNING, and full row locking.
type Dialect struct{}

var _ relq.Dialect = (*Dialect)(nil)

// New creates the PostgreSQL dialect.
func New() *Dialect {
	return &Dialect{}
}

// Name identifies the dialect.
func (d *Dialect) Name() string { return "postgres" }

// QuoteIdent quotes an identifier to handle reserved words and special
// characters. Embedded double quotes are escaped by doubling.
func (d *Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns the 1-based n-th bind placeholder.
func (d *Dialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// Pagination renders LIMIT and OFFSET. PostgreSQL accepts either alone,
// with or without an ORDER BY.
func (d *Dialect) Pagination(limit, offset *int, _ bool) string {
	var sb strings.Builder
	if limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *limit)
	}
	if offset != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *offset)
	}
	return sb.String()
}

// SupportsReturning reports RETURNING support.
func (d *Dialect) SupportsReturning() bool { return true }

// SupportsRowLocking reports FOR UPDATE / FOR SHARE support.
func (d *Dialect) SupportsRowLocking() bool { return true }

// Open opens a connection pool through the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}
