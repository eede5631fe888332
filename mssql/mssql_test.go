package mssql

import "testing"

func TestDialect(t *testing.T) {
	d := New()

	if d.Name() != "mssql" {
		t.Errorf("Expected name mssql, got %q", d.Name())
	}

	t.Run("Identifier quoting", func(t *testing.T) {
		if got := d.QuoteIdent("users"); got != "[users]" {
			t.Errorf("Expected brackets, got %s", got)
		}
		if got := d.QuoteIdent("we]ird"); got != "[we]]ird]" {
			t.Errorf("Expected escaped bracket, got %s", got)
		}
	})

	t.Run("Placeholders are numbered", func(t *testing.T) {
		if got := d.Placeholder(2); got != "@p2" {
			t.Errorf("Expected @p2, got %s", got)
		}
	})

	t.Run("Pagination uses OFFSET FETCH", func(t *testing.T) {
		limit, offset := 10, 5
		if got := d.Pagination(&limit, &offset, true); got != " OFFSET 5 ROWS FETCH NEXT 10 ROWS ONLY" {
			t.Errorf("Unexpected pagination: %q", got)
		}
		if got := d.Pagination(&limit, nil, true); got != " OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY" {
			t.Errorf("Expected zero offset, got %q", got)
		}
	})

	t.Run("Unordered pagination supplies a constant ordering", func(t *testing.T) {
		limit, offset := 10, 5
		want := " ORDER BY (SELECT NULL) OFFSET 5 ROWS FETCH NEXT 10 ROWS ONLY"
		if got := d.Pagination(&limit, &offset, false); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
		if got := d.Pagination(nil, nil, false); got != "" {
			t.Errorf("Expected empty pagination, got %q", got)
		}
	})

	if d.SupportsReturning() {
		t.Error("Expected no RETURNING support")
	}
	if d.SupportsRowLocking() {
		t.Error("Expected no row locking support")
	}
}
