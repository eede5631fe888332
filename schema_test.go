package relq

import (
	"testing"

	"github.com/zoobzio/dbml"
)

func TestTableize(t *testing.T) {
	cases := map[string]string{
		"User":      "users",
		"OrderItem": "order_items",
		"Category":  "categories",
	}
	for name, want := range cases {
		if got := Tableize(name); got != want {
			t.Errorf("Tableize(%q): expected %q, got %q", name, want, got)
		}
	}
}

func TestSchemaAddModel(t *testing.T) {
	t.Run("Empty table name is derived", func(t *testing.T) {
		s := NewSchema()
		m := NewModel("OrderItem", "")
		_ = m.AddField(NewField("id", "bigint"))
		if err := s.AddModel(m); err != nil {
			t.Fatalf("AddModel failed: %v", err)
		}
		if m.Table != "order_items" {
			t.Errorf("Expected derived table order_items, got %q", m.Table)
		}
	})

	t.Run("Duplicate model names are rejected", func(t *testing.T) {
		s := NewSchema()
		_ = s.AddModel(NewModel("User", "users"))
		if err := s.AddModel(NewModel("User", "users")); err == nil {
			t.Error("Expected error for duplicate model")
		}
	})

	t.Run("Models keep registration order", func(t *testing.T) {
		s := NewSchema()
		_ = s.AddModel(NewModel("B", "bs"))
		_ = s.AddModel(NewModel("A", "as"))
		models := s.Models()
		if models[0].Name != "B" || models[1].Name != "A" {
			t.Errorf("Unexpected order: %v", models)
		}
	})
}

func TestSchemaAddRef(t *testing.T) {
	s := NewSchema()
	user := NewModel("User", "users")
	_ = user.AddField(NewField("id", "bigint"))
	image := NewModel("Image", "images")
	_ = image.AddFields(NewField("id", "bigint"), NewField("userId", "bigint"))
	_ = s.AddModel(user)
	_ = s.AddModel(image)

	if err := s.AddRef(Ref{From: "Image.userId", To: "User.id"}); err != nil {
		t.Fatalf("AddRef failed: %v", err)
	}
	uid, _ := user.Field("id")
	if image.References()["User"]["userId"] != uid {
		t.Error("Expected edge recorded through AddRef")
	}

	t.Run("Malformed endpoint", func(t *testing.T) {
		if err := s.AddRef(Ref{From: "Image", To: "User.id"}); err == nil {
			t.Error("Expected error for endpoint without a dot")
		}
	})
	t.Run("Unknown model", func(t *testing.T) {
		if err := s.AddRef(Ref{From: "Video.userId", To: "User.id"}); err == nil {
			t.Error("Expected error for unknown model")
		}
	})
	t.Run("Unknown target field", func(t *testing.T) {
		if err := s.AddRef(Ref{From: "Image.userId", To: "User.missing"}); err == nil {
			t.Error("Expected error for unknown target field")
		}
	})
}

func TestSchemaFromDBML(t *testing.T) {
	project := dbml.NewProject("test")

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	project.AddTable(users)

	posts := dbml.NewTable("posts")
	posts.AddColumn(dbml.NewColumn("id", "bigint"))
	posts.AddColumn(dbml.NewColumn("user_id", "bigint"))
	project.AddTable(posts)

	s, err := SchemaFromDBML(project, Ref{From: "Post.user_id", To: "User.id"})
	if err != nil {
		t.Fatalf("SchemaFromDBML failed: %v", err)
	}

	user, ok := s.Model("User")
	if !ok {
		t.Fatal("Expected User model from users table")
	}
	if user.Table != "users" {
		t.Errorf("Expected table users, got %q", user.Table)
	}
	if user.Identity() == nil || user.Identity().Name != "id" {
		t.Errorf("Expected id identity, got %v", user.Identity())
	}

	post, _ := s.Model("Post")
	if post.References()["User"] == nil {
		t.Error("Expected Post -> User edge from refs")
	}

	t.Run("Nil project", func(t *testing.T) {
		if _, err := SchemaFromDBML(nil); err == nil {
			t.Error("Expected error for nil project")
		}
	})
}
