package types

// Statement contains the rendered SQL and its ordered bound arguments.
// Placeholders in SQL are `?` and correspond 1:1, left to right, with Args;
// dialects rebind them to their native placeholder style before execution.
type Statement struct {
	SQL  string
	Args []any
}
