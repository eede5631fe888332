// Package mssql provides the SQL Server dialect for relq.
package mssql

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the sqlserver driver.
	_ "github.com/microsoft/go-mssqldb"

	"github.com/zoobzio/relq"
)

// Dialect implements the SQL Server dialect: bracket-quoted identifiers,
// @pN placeholders, no RETURNING, and no FOR UPDATE style locking (SQL
// Server uses table hints instead).
type Dialect struct{}

var _ relq.Dialect = (*Dialect)(nil)

// New creates the SQL Server dialect.
func New() *Dialect {
	return &Dialect{}
}

// Name identifies the dialect.
func (d *Dialect) Name() string { return "mssql" }

// QuoteIdent quotes an identifier with brackets. Embedded closing
// brackets are escaped by doubling.
func (d *Dialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Placeholder returns the 1-based n-th bind placeholder.
func (d *Dialect) Placeholder(n int) string {
	return fmt.Sprintf("@p%d", n)
}

// Pagination renders the OFFSET ... FETCH clause. SQL Server requires an
// OFFSET row count before a fetch limit, and an ORDER BY before either;
// an unordered statement gets the constant ORDER BY (SELECT NULL).
func (d *Dialect) Pagination(limit, offset *int, ordered bool) string {
	if limit == nil && offset == nil {
		return ""
	}
	skip := 0
	if offset != nil {
		skip = *offset
	}
	var sb strings.Builder
	if !ordered {
		sb.WriteString(" ORDER BY (SELECT NULL)")
	}
	fmt.Fprintf(&sb, " OFFSET %d ROWS", skip)
	if limit != nil {
		fmt.Fprintf(&sb, " FETCH NEXT %d ROWS ONLY", *limit)
	}
	return sb.String()
}

// SupportsReturning reports RETURNING support.
func (d *Dialect) SupportsReturning() bool { return false }

// SupportsRowLocking reports FOR UPDATE / FOR SHARE support.
func (d *Dialect) SupportsRowLocking() bool { return false }

// Open opens a connection pool through the go-mssqldb driver.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("sqlserver", dsn)
}
