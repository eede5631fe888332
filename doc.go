// Package relq is a declarative relational query engine. A query
// describes what to return (fields, filters, grouping, ordering, joins,
// pagination); the engine compiles the description into a single
// parameterized SQL statement per operation and reconstructs the flat
// result rows into a deduplicated object graph, including cyclic join
// chains.
//
// # Basic Usage
//
// Models and their reference graph are declared once, at startup:
//
//	user := relq.NewModel("User", "")
//	user.AddFields(relq.NewField("id", "bigint"), relq.NewField("name", "varchar"))
//	image := relq.NewModel("Image", "")
//	image.AddFields(relq.NewField("id", "bigint"), relq.NewField("userId", "bigint"))
//
//	schema := relq.NewSchema()
//	schema.AddModel(user)
//	schema.AddModel(image)
//	schema.AddRef(relq.Ref{From: "Image.userId", To: "User.id"})
//
// Queries bind to a model and execute against any *sql.DB or *sql.Tx
// through a dialect:
//
//	import "github.com/zoobzio/relq/postgres"
//
//	users, err := relq.MustQuery(user).
//		Where(relq.M{"name": "A"}).
//		Join(relq.MustQuery(image)).
//		Fetch(ctx, postgres.New(), db)
//
// A joined fetch compiles to exactly one statement regardless of join
// depth. Child rows attach to their parents under the child's output
// key: a single node for one match, an ordered list for more.
//
// # Multi-Dialect Support
//
// Statement rendering goes through the Dialect interface. Available
// dialects: postgres, mysql, sqlite, mssql. Placeholders are rendered
// positionally and rebound to the dialect's native style, so the
// statement's argument list always lines up 1:1 with its placeholders.
//
// # Errors
//
// Schema misconfiguration surfaces as ConfigurationError at query
// construction; programming errors at the call site surface as
// UsageError before any I/O; driver failures wrap into per-verb
// OperationErrors; and Require turns an empty result into a
// RowsNotFoundError. All four match their sentinels with errors.Is.
package relq
