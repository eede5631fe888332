// Package testing provides test utilities for relq.
package testing

import (
	"reflect"
	"testing"

	"github.com/zoobzio/dbml"
	"github.com/zoobzio/relq"
)

// TestSchema creates a fully-featured schema for testing. Includes users,
// posts, comments, and orders models with their reference graph.
func TestSchema(t *testing.T) *relq.Schema {
	t.Helper()

	project := dbml.NewProject("test")

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	users.AddColumn(dbml.NewColumn("email", "varchar"))
	users.AddColumn(dbml.NewColumn("age", "int"))
	users.AddColumn(dbml.NewColumn("active", "boolean"))
	project.AddTable(users)

	posts := dbml.NewTable("posts")
	posts.AddColumn(dbml.NewColumn("id", "bigint"))
	posts.AddColumn(dbml.NewColumn("user_id", "bigint"))
	posts.AddColumn(dbml.NewColumn("title", "varchar"))
	posts.AddColumn(dbml.NewColumn("views", "int"))
	project.AddTable(posts)

	comments := dbml.NewTable("comments")
	comments.AddColumn(dbml.NewColumn("id", "bigint"))
	comments.AddColumn(dbml.NewColumn("post_id", "bigint"))
	comments.AddColumn(dbml.NewColumn("user_id", "bigint"))
	comments.AddColumn(dbml.NewColumn("body", "text"))
	project.AddTable(comments)

	orders := dbml.NewTable("orders")
	orders.AddColumn(dbml.NewColumn("id", "bigint"))
	orders.AddColumn(dbml.NewColumn("user_id", "bigint"))
	orders.AddColumn(dbml.NewColumn("total", "numeric"))
	orders.AddColumn(dbml.NewColumn("status", "varchar"))
	project.AddTable(orders)

	schema, err := relq.SchemaFromDBML(project,
		relq.Ref{From: "Post.user_id", To: "User.id"},
		relq.Ref{From: "Comment.post_id", To: "Post.id"},
		relq.Ref{From: "Comment.user_id", To: "User.id"},
		relq.Ref{From: "Order.user_id", To: "User.id"},
	)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	return schema
}

// Model fetches a model from the schema, failing the test if absent.
func Model(t *testing.T, s *relq.Schema, name string) *relq.Model {
	t.Helper()
	m, ok := s.Model(name)
	if !ok {
		t.Fatalf("Schema has no model %q", name)
	}
	return m
}

// AssertSQL compares expected and actual SQL, reporting detailed differences.
func AssertSQL(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("SQL mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}

// AssertArgs compares expected and actual bound argument lists in order.
func AssertArgs(t *testing.T, expected, actual []any) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Args length mismatch:\nExpected: %v\nActual:   %v", expected, actual)
		return
	}
	for i := range expected {
		if !reflect.DeepEqual(expected[i], actual[i]) {
			t.Errorf("Arg %d mismatch:\nExpected: %v\nActual:   %v", i, expected[i], actual[i])
		}
	}
}
