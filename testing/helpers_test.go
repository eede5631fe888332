package testing

import "testing"

func TestTestSchema(t *testing.T) {
	schema := TestSchema(t)

	for _, name := range []string{"User", "Post", "Comment", "Order"} {
		if _, ok := schema.Model(name); !ok {
			t.Errorf("Expected model %q", name)
		}
	}

	post := Model(t, schema, "Post")
	if post.Table != "posts" {
		t.Errorf("Expected table posts, got %q", post.Table)
	}
	if post.Identity() == nil {
		t.Error("Expected an identity field")
	}
}

func TestAssertSQL_Match(t *testing.T) {
	// This should not cause the test to fail
	AssertSQL(t, "SELECT * FROM users", "SELECT * FROM users")
}

func TestAssertArgs_Match(t *testing.T) {
	// This should not cause the test to fail
	AssertArgs(t, []any{1, "a"}, []any{1, "a"})
}

func TestAssertArgs_Empty(t *testing.T) {
	AssertArgs(t, []any{}, []any{})
}
