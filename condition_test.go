package relq

import (
	"testing"

	"github.com/zoobzio/relq/internal/types"
)

func TestTryC(t *testing.T) {
	t.Run("Comparison takes exactly one value", func(t *testing.T) {
		c, err := TryC("age", GT, 21)
		if err != nil {
			t.Fatalf("Expected condition, got error: %v", err)
		}
		if c.Field != "age" || c.Operator != GT {
			t.Errorf("Unexpected condition: %+v", c)
		}

		if _, err := TryC("age", GT); err == nil {
			t.Error("Expected error for missing value")
		}
		if _, err := TryC("age", GT, 1, 2); err == nil {
			t.Error("Expected error for two values")
		}
	})

	t.Run("Null checks take no values", func(t *testing.T) {
		if _, err := TryC("age", IsNull, 1); err == nil {
			t.Error("Expected error for IS NULL with a value")
		}
		if _, err := TryC("age", IsNull); err != nil {
			t.Errorf("Expected condition, got error: %v", err)
		}
	})

	t.Run("IN requires at least one value", func(t *testing.T) {
		if _, err := TryC("id", IN); err == nil {
			t.Error("Expected error for empty IN")
		}
	})

	t.Run("Between requires exactly two values", func(t *testing.T) {
		if _, err := TryC("age", Between, 1); err == nil {
			t.Error("Expected error for single-value BETWEEN")
		}
		if _, err := TryC("age", Between, 1, 2); err != nil {
			t.Errorf("Expected condition, got error: %v", err)
		}
	})

	t.Run("EXISTS is rejected without a subquery", func(t *testing.T) {
		if _, err := TryC("id", EXISTS); err == nil {
			t.Error("Expected error for EXISTS through TryC")
		}
	})
}

func TestCPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid arity")
		}
	}()
	C("age", GT)
}

func TestConditionHelpers(t *testing.T) {
	if c := Null("age"); c.Operator != IsNull {
		t.Errorf("Expected IsNull, got %s", c.Operator)
	}
	if c := NotNull("age"); c.Operator != IsNotNull {
		t.Errorf("Expected IsNotNull, got %s", c.Operator)
	}
	if c := In("id", 1, 2); c.Operator != IN || len(c.Values) != 2 {
		t.Errorf("Unexpected IN condition: %+v", c)
	}
	if c := Like("name", "A%"); c.Operator != LIKE || c.Values[0] != "A%" {
		t.Errorf("Unexpected LIKE condition: %+v", c)
	}
}

func TestGroupConstructors(t *testing.T) {
	t.Run("And accepts conditions and maps", func(t *testing.T) {
		g := And(C("a", EQ, 1), M{"b": 2})
		if g.Logic != types.AND || len(g.Items) != 2 {
			t.Fatalf("Unexpected grouping: %+v", g)
		}
	})

	t.Run("Map sugar expands sorted with nil as IS NULL", func(t *testing.T) {
		g := expandMap(M{"b": nil, "a": 1})
		if len(g.Items) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(g.Items))
		}
		first, ok := g.Items[0].(Condition)
		if !ok || first.Field != "a" || first.Operator != EQ {
			t.Errorf("Expected a = ? first, got %+v", g.Items[0])
		}
		second, ok := g.Items[1].(Condition)
		if !ok || second.Field != "b" || second.Operator != IsNull {
			t.Errorf("Expected b IS NULL second, got %+v", g.Items[1])
		}
	})

	t.Run("Bare query becomes a subquery item", func(t *testing.T) {
		user, _ := newUserImageModels(t)
		g, err := TryOr(MustQuery(user))
		if err != nil {
			t.Fatalf("Expected grouping, got error: %v", err)
		}
		if _, ok := g.Items[0].(types.SubqueryCondition); !ok {
			t.Errorf("Expected SubqueryCondition, got %T", g.Items[0])
		}
	})

	t.Run("Empty grouping is an error", func(t *testing.T) {
		if _, err := TryAnd(); err == nil {
			t.Error("Expected error for empty grouping")
		}
	})

	t.Run("Unsupported value is an error", func(t *testing.T) {
		if _, err := TryAnd(42); err == nil {
			t.Error("Expected error for int grouping value")
		}
	})
}
