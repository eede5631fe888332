package relq

import (
	"fmt"
	"strings"
	"testing"
)

// testDialect is a minimal ANSI-flavored dialect for unit tests:
// double-quoted identifiers, positional ? placeholders, LIMIT/OFFSET.
type testDialect struct {
	returning bool
}

func (d testDialect) Name() string { return "test" }

func (d testDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d testDialect) Placeholder(_ int) string { return "?" }

func (d testDialect) Pagination(limit, offset *int, _ bool) string {
	var sb strings.Builder
	if limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *limit)
	}
	if offset != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *offset)
	}
	return sb.String()
}

func (d testDialect) SupportsReturning() bool  { return d.returning }
func (d testDialect) SupportsRowLocking() bool { return true }

// newUserImageModels builds the canonical two-model schema: User{id,name}
// referenced by Image{id,userId}.
func newUserImageModels(t *testing.T) (*Model, *Model) {
	t.Helper()

	user := NewModel("User", "users")
	if err := user.AddFields(NewField("id", "bigint"), NewField("name", "varchar")); err != nil {
		t.Fatalf("Failed to build User model: %v", err)
	}

	image := NewModel("Image", "images")
	userID := NewField("userId", "bigint")
	uid, _ := user.Field("id")
	userID.References = uid
	if err := image.AddFields(NewField("id", "bigint"), userID); err != nil {
		t.Fatalf("Failed to build Image model: %v", err)
	}
	return user, image
}

// newMultiRefModels builds a Document model with two reference fields to
// the same User field, for On-restriction tests.
func newMultiRefModels(t *testing.T) (*Model, *Model) {
	t.Helper()

	user := NewModel("User", "users")
	if err := user.AddFields(NewField("id", "bigint"), NewField("name", "varchar")); err != nil {
		t.Fatalf("Failed to build User model: %v", err)
	}
	uid, _ := user.Field("id")

	doc := NewModel("Document", "documents")
	author := NewField("authorId", "bigint")
	author.References = uid
	reviewer := NewField("reviewerId", "bigint")
	reviewer.References = uid
	if err := doc.AddFields(NewField("id", "bigint"), author, reviewer); err != nil {
		t.Fatalf("Failed to build Document model: %v", err)
	}
	return user, doc
}
