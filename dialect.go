package relq

import "strings"

// Dialect abstracts the textual differences between SQL dialects:
// identifier quoting, placeholder style, and optional-clause support.
// Implementations live in the postgres, mysql, sqlite, and mssql
// subpackages.
type Dialect interface {
	// Name identifies the dialect.
	Name() string
	// QuoteIdent quotes an identifier to handle reserved words.
	QuoteIdent(name string) string
	// Placeholder returns the 1-based n-th bind placeholder.
	Placeholder(n int) string
	// Pagination renders the trailing limit/offset clause, including its
	// leading space, or "" when both are nil. The ordered flag reports
	// whether the statement carries an ORDER BY; dialects whose pagination
	// is only legal after one must supply a constant ordering themselves.
	Pagination(limit, offset *int, ordered bool) string
	// SupportsReturning reports whether the dialect renders RETURNING.
	SupportsReturning() bool
	// SupportsRowLocking reports whether FOR UPDATE / FOR SHARE render.
	SupportsRowLocking() bool
}

// rebind rewrites `?` placeholders into the dialect's native style.
// Question marks inside quoted regions are left alone.
func rebind(sql string, d Dialect) string {
	if d.Placeholder(1) == "?" {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	inSingle, inDouble := false, false
	for _, r := range sql {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case r == '?' && !inSingle && !inDouble:
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
