package relq

import (
	"fmt"
	"sort"

	"github.com/zoobzio/relq/internal/types"
)

// Re-exported expression-tree types. The node set lives in internal/types;
// consumers build trees through the constructors below.
type (
	// ConditionItem represents either a single condition or a group.
	ConditionItem = types.ConditionItem
	// Condition is a single boolean leaf.
	Condition = types.Condition
	// Grouping combines items with AND/OR logic.
	Grouping = types.ConditionGroup
	// Raw is an opaque SQL fragment with ordered bound values.
	Raw = types.Raw
	// Operator represents query comparison operators.
	Operator = types.Operator
	// Direction represents sort direction.
	Direction = types.Direction
	// Operation represents the type of query operation.
	Operation = types.Operation
	// LockMode represents a row-locking clause appended to a fetch.
	LockMode = types.LockMode
	// Statement contains rendered SQL and its ordered bound arguments.
	Statement = types.Statement
)

// Re-export operator constants for the public API.
const (
	EQ = types.EQ
	NE = types.NE
	GT = types.GT
	GE = types.GE
	LT = types.LT
	LE = types.LE

	IN        = types.IN
	NotIn     = types.NotIn
	LIKE      = types.LIKE
	NotLike   = types.NotLike
	IsNull    = types.IsNull
	IsNotNull = types.IsNotNull
	EXISTS    = types.EXISTS
	NotExists = types.NotExists
	Between   = types.Between
)

// Re-export direction constants for the public API.
const (
	ASC  = types.ASC
	DESC = types.DESC
)

// Re-export operation constants for the public API.
const (
	OpFetch  = types.OpFetch
	OpInsert = types.OpInsert
	OpUpdate = types.OpUpdate
	OpDelete = types.OpDelete
	OpCount  = types.OpCount
)

// Re-export lock modes for the public API.
const (
	LockNone      = types.LockNone
	LockForUpdate = types.LockForUpdate
	LockForShare  = types.LockForShare
)

// M is the map sugar for field→value pairs. Inside a grouping or a where
// family it expands to an implicit AND of equality conditions; keys are
// resolved against the owning query's model at compile time.
type M map[string]any

// TryC creates a condition, returning an error if the operator arity is
// wrong. Field resolution happens later, against the owning query's model.
func TryC(field string, op Operator, values ...any) (Condition, error) {
	switch op {
	case IsNull, IsNotNull:
		if len(values) != 0 {
			return Condition{}, fmt.Errorf("relq: %s takes no values", op)
		}
	case IN, NotIn:
		if len(values) == 0 {
			return Condition{}, fmt.Errorf("relq: %s requires at least one value", op)
		}
	case Between:
		if len(values) != 2 {
			return Condition{}, fmt.Errorf("relq: BETWEEN requires exactly two values")
		}
	case EXISTS, NotExists:
		return Condition{}, fmt.Errorf("relq: %s requires a subquery, use Exists", op)
	default:
		if len(values) != 1 {
			return Condition{}, fmt.Errorf("relq: %s requires exactly one value", op)
		}
	}
	return Condition{Field: field, Operator: op, Values: values}, nil
}

// C creates a condition.
func C(field string, op Operator, values ...any) Condition {
	c, err := TryC(field, op, values...)
	if err != nil {
		panic(err)
	}
	return c
}

// Null creates an IS NULL condition. It contributes no parameters.
func Null(field string) Condition {
	return Condition{Field: field, Operator: IsNull}
}

// NotNull creates an IS NOT NULL condition.
func NotNull(field string) Condition {
	return Condition{Field: field, Operator: IsNotNull}
}

// In creates a set-membership condition with one placeholder per value.
func In(field string, values ...any) Condition {
	return C(field, IN, values...)
}

// Like creates a pattern-match condition.
func Like(field string, pattern string) Condition {
	return Condition{Field: field, Operator: LIKE, Values: []any{pattern}}
}

// Not wraps an item, negating its rendering.
func Not(item ConditionItem) types.Not {
	return types.Not{Item: item}
}

// R creates a raw SQL fragment with its ordered bound values. The
// fragment is inserted verbatim and never re-interpreted.
func R(sql string, args ...any) Raw {
	return Raw{SQL: sql, Args: args}
}

// Exists creates an EXISTS condition over a subquery.
func Exists(q *Query) types.SubqueryCondition {
	return types.SubqueryCondition{Operator: EXISTS, Query: q}
}

// NotExistsQ creates a NOT EXISTS condition over a subquery.
func NotExistsQ(q *Query) types.SubqueryCondition {
	return types.SubqueryCondition{Operator: NotExists, Query: q}
}

// InQuery creates a field IN (subquery) condition.
func InQuery(field string, q *Query) types.SubqueryCondition {
	return types.SubqueryCondition{Field: field, Operator: IN, Query: q}
}

// expand converts a grouping value into a ConditionItem. Accepted kinds:
// ConditionItem, M (sugar for an AND of equalities, keys sorted for
// deterministic output), and *Query (a bare parenthesised subquery).
func expand(v any) (ConditionItem, error) {
	switch it := v.(type) {
	case nil:
		return nil, fmt.Errorf("relq: nil grouping value")
	case ConditionItem:
		return it, nil
	case M:
		return expandMap(it), nil
	case map[string]any:
		return expandMap(it), nil
	case *Query:
		return types.SubqueryCondition{Query: it}, nil
	default:
		return nil, fmt.Errorf("relq: unsupported grouping value %T", v)
	}
}

// expandMap sugar-expands field→value pairs to equality conditions.
// A nil value becomes IS NULL.
func expandMap(m map[string]any) Grouping {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]ConditionItem, 0, len(keys))
	for _, k := range keys {
		if m[k] == nil {
			items = append(items, Null(k))
			continue
		}
		items = append(items, Condition{Field: k, Operator: EQ, Values: []any{m[k]}})
	}
	return Grouping{Logic: types.AND, Items: items}
}

// TryAnd creates an AND grouping, returning an error for invalid values.
func TryAnd(values ...any) (Grouping, error) {
	return tryGroup(types.AND, values...)
}

// And creates an AND grouping over conditions, groupings, maps, raw
// fragments, and subqueries.
func And(values ...any) Grouping {
	g, err := TryAnd(values...)
	if err != nil {
		panic(err)
	}
	return g
}

// TryOr creates an OR grouping, returning an error for invalid values.
func TryOr(values ...any) (Grouping, error) {
	return tryGroup(types.OR, values...)
}

// Or creates an OR grouping.
func Or(values ...any) Grouping {
	g, err := TryOr(values...)
	if err != nil {
		panic(err)
	}
	return g
}

func tryGroup(logic types.LogicOperator, values ...any) (Grouping, error) {
	if len(values) == 0 {
		return Grouping{}, fmt.Errorf("relq: %s requires at least one value", logic)
	}
	items := make([]ConditionItem, 0, len(values))
	for _, v := range values {
		item, err := expand(v)
		if err != nil {
			return Grouping{}, err
		}
		items = append(items, item)
	}
	return Grouping{Logic: logic, Items: items}, nil
}
