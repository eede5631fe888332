package integration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/zoobzio/relq"
	pgdialect "github.com/zoobzio/relq/postgres"
	relqtesting "github.com/zoobzio/relq/testing"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container *postgres.PostgresContainer
	db        *sql.DB
	connStr   string
}

// setupPostgresSchema creates the test tables.
func setupPostgresSchema(ctx context.Context, t *testing.T, pc *PostgresContainer) {
	t.Helper()

	pc.Exec(ctx, t, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			age INT,
			active BOOLEAN DEFAULT true
		)
	`)

	pc.Exec(ctx, t, `
		CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			views INT DEFAULT 0
		)
	`)

	pc.Exec(ctx, t, `
		CREATE TABLE IF NOT EXISTS comments (
			id BIGSERIAL PRIMARY KEY,
			post_id BIGINT REFERENCES posts(id) ON DELETE CASCADE,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			body TEXT
		)
	`)

	pc.Exec(ctx, t, `
		CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			total NUMERIC(10,2) NOT NULL,
			status VARCHAR(50) DEFAULT 'pending'
		)
	`)

	pc.Exec(ctx, t, `TRUNCATE users, posts, comments, orders RESTART IDENTITY CASCADE`)
}

func TestPostgresRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pc := getPostgresContainer(t)
	setupPostgresSchema(ctx, t, pc)

	d := pgdialect.New()
	schema := relqtesting.TestSchema(t)
	user := relqtesting.Model(t, schema, "User")
	post := relqtesting.Model(t, schema, "Post")

	inserted, err := relq.MustQuery(user).Insert(ctx, d, pc.db,
		relq.M{"username": "alice", "email": "alice@example.com", "age": 30, "active": true},
		relq.M{"username": "bob", "email": "bob@example.com", "age": 25, "active": false},
	)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("Expected 2 inserted users, got %d", len(inserted))
	}

	ids := map[string]any{}
	for _, n := range inserted {
		name, _ := n.Get("username").(string)
		if n.Get("id") == nil {
			t.Fatalf("Expected generated id for %q", name)
		}
		ids[name] = n.Get("id")
	}

	if _, err := relq.MustQuery(post).Insert(ctx, d, pc.db,
		relq.M{"user_id": ids["alice"], "title": "first", "views": 10},
		relq.M{"user_id": ids["alice"], "title": "second", "views": 20},
		relq.M{"user_id": ids["bob"], "title": "third", "views": 5},
	); err != nil {
		t.Fatalf("Insert posts failed: %v", err)
	}

	t.Run("Joined fetch attaches children", func(t *testing.T) {
		q := relq.MustQuery(user).
			OrderBy("username", relq.ASC).
			Join(relq.MustQuery(post))

		users, err := q.Fetch(ctx, d, pc.db)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if len(users) != 2 {
			t.Fatalf("Expected 2 users, got %d", len(users))
		}

		alice := users[0]
		if got, _ := alice.Get("username").(string); got != "alice" {
			t.Fatalf("Expected alice first, got %q", got)
		}
		posts, ok := alice.Get("post").([]relq.Node)
		if !ok {
			t.Fatalf("Expected a post list on alice, got %T", alice.Get("post"))
		}
		if len(posts) != 2 {
			t.Errorf("Expected 2 posts on alice, got %d", len(posts))
		}

		if _, ok := users[1].Get("post").(relq.Node); !ok {
			t.Errorf("Expected a single post node on bob, got %T", users[1].Get("post"))
		}
	})

	t.Run("Count", func(t *testing.T) {
		n, err := relq.MustQuery(post).Count(ctx, d, pc.db)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 3 {
			t.Errorf("Expected 3 posts, got %d", n)
		}

		n, err = relq.MustQuery(post).CountDistinct("user_id").Count(ctx, d, pc.db)
		if err != nil {
			t.Fatalf("CountDistinct failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected 2 distinct authors, got %d", n)
		}
	})

	t.Run("Update returns changed rows", func(t *testing.T) {
		out, err := relq.MustQuery(user).
			Where(relq.M{"username": "alice"}).
			Update(ctx, d, pc.db, relq.M{"age": 31})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("Expected 1 updated row, got %d", len(out))
		}
		var age int64
		switch v := out[0].Get("age").(type) {
		case int64:
			age = v
		case int32:
			age = int64(v)
		}
		if age != 31 {
			t.Errorf("Expected age 31, got %v", out[0].Get("age"))
		}
	})

	t.Run("Delete returns the removed rows", func(t *testing.T) {
		out, err := relq.MustQuery(post).
			Where(relq.M{"title": "third"}).
			Delete(ctx, d, pc.db)
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("Expected 1 deleted row, got %d", len(out))
		}
		if got, _ := out[0].Get("title").(string); got != "third" {
			t.Errorf("Expected the deleted post back, got %q", got)
		}
	})
}

func TestPostgresTransaction(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pc := getPostgresContainer(t)
	setupPostgresSchema(ctx, t, pc)

	d := pgdialect.New()
	schema := relqtesting.TestSchema(t)
	user := relqtesting.Model(t, schema, "User")

	tx, err := pc.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}

	if _, err := relq.MustQuery(user).Insert(ctx, d, tx,
		relq.M{"username": "ghost", "email": "ghost@example.com"},
	); err != nil {
		tx.Rollback()
		t.Fatalf("Insert in tx failed: %v", err)
	}

	n, err := relq.MustQuery(user).Where(relq.M{"username": "ghost"}).Count(ctx, d, tx)
	if err != nil {
		tx.Rollback()
		t.Fatalf("Count in tx failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected the row inside the transaction, got %d", n)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	n, err = relq.MustQuery(user).Where(relq.M{"username": "ghost"}).Count(ctx, d, pc.db)
	if err != nil {
		t.Fatalf("Count after rollback failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected rollback to discard the row, got %d", n)
	}
}

func TestPostgresRequire(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pc := getPostgresContainer(t)
	setupPostgresSchema(ctx, t, pc)

	d := pgdialect.New()
	schema := relqtesting.TestSchema(t)
	user := relqtesting.Model(t, schema, "User")

	_, err := relq.MustQuery(user).
		Where(relq.M{"username": "nobody"}).
		Require().
		Fetch(ctx, d, pc.db)
	if !relq.IsNotFound(err) {
		t.Errorf("Expected a not-found error, got %v", err)
	}
}
