package types

// Condition represents a single boolean leaf.
// Field holds the schema field name; column resolution happens at render
// time against the owning query's model. Values are always bound
// parameters, never literals, in the order they must be placed.
type Condition struct {
	Field    string
	Operator Operator
	Values   []any
}

// ConditionItem represents either a single condition or a group of conditions.
type ConditionItem interface {
	isConditionItem()
}

// ConditionGroup represents grouped condition items with AND/OR logic.
// A single item renders without wrapping parentheses; two or more render
// parenthesised and joined by the logic operator.
type ConditionGroup struct {
	Logic LogicOperator
	Items []ConditionItem
}

// Not wraps an item, prefixing its rendering with NOT.
type Not struct {
	Item ConditionItem
}

// Raw is an opaque SQL fragment with its ordered bound values,
// rendered verbatim and never re-interpreted.
type Raw struct {
	SQL  string
	Args []any
}

// SubqueryCondition embeds a compiled child query. Query is kept as an
// opaque value; the base package compiles it to a fragment at render time.
type SubqueryCondition struct {
	Field    string // empty for EXISTS / NOT EXISTS
	Operator Operator
	Query    any
}

func (Condition) isConditionItem()         {}
func (ConditionGroup) isConditionItem()    {}
func (Not) isConditionItem()               {}
func (Raw) isConditionItem()               {}
func (SubqueryCondition) isConditionItem() {}

// OrderBy represents a single ORDER BY entry.
type OrderBy struct {
	Field     string
	Direction Direction
}

// Empty reports whether the group would contribute neither SQL nor
// parameters. Callers must not assemble a clause around an empty group.
func (g ConditionGroup) Empty() bool {
	return len(g.Items) == 0
}
