package types

import (
	"fmt"
	"strings"
)

// RenderContext carries the callbacks the tree renderer needs from the
// compiling query: schema column resolution and child-query compilation.
type RenderContext struct {
	// Resolve maps a field name to its rendered, alias-qualified column.
	Resolve func(field string) (string, error)
	// Compile renders an embedded query to a parenthesised fragment.
	Compile func(query any) (Statement, error)
}

// Empty reports whether an item would contribute no SQL at all.
func Empty(item ConditionItem) bool {
	switch it := item.(type) {
	case ConditionGroup:
		for _, sub := range it.Items {
			if !Empty(sub) {
				return false
			}
		}
		return true
	case Not:
		return Empty(it.Item)
	case nil:
		return true
	default:
		return false
	}
}

// RenderItem writes the SQL for item to sb and appends its bound values to
// args. SQL text and args stay positionally correlated: every `?` written
// corresponds to exactly one appended value, left to right.
func (ctx *RenderContext) RenderItem(item ConditionItem, sb *strings.Builder, args *[]any) error {
	switch it := item.(type) {
	case Condition:
		return ctx.renderCondition(it, sb, args)
	case ConditionGroup:
		return ctx.renderGroup(it, sb, args)
	case Not:
		sb.WriteString("NOT ")
		return ctx.RenderItem(it.Item, sb, args)
	case Raw:
		sb.WriteString(it.SQL)
		*args = append(*args, it.Args...)
		return nil
	case SubqueryCondition:
		return ctx.renderSubquery(it, sb, args)
	default:
		return fmt.Errorf("unknown condition type: %T", item)
	}
}

func (ctx *RenderContext) renderCondition(c Condition, sb *strings.Builder, args *[]any) error {
	column, err := ctx.Resolve(c.Field)
	if err != nil {
		return err
	}

	switch c.Operator {
	case IsNull, IsNotNull:
		fmt.Fprintf(sb, "%s %s", column, c.Operator)
	case IN, NotIn:
		if len(c.Values) == 0 {
			return fmt.Errorf("%s requires at least one value", c.Operator)
		}
		fmt.Fprintf(sb, "%s %s (", column, c.Operator)
		for i, v := range c.Values {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			*args = append(*args, v)
		}
		sb.WriteString(")")
	case Between:
		if len(c.Values) != 2 {
			return fmt.Errorf("BETWEEN requires exactly two values, got %d", len(c.Values))
		}
		fmt.Fprintf(sb, "%s BETWEEN ? AND ?", column)
		*args = append(*args, c.Values[0], c.Values[1])
	default:
		if len(c.Values) != 1 {
			return fmt.Errorf("operator %s requires exactly one value, got %d", c.Operator, len(c.Values))
		}
		fmt.Fprintf(sb, "%s %s ?", column, c.Operator)
		*args = append(*args, c.Values[0])
	}
	return nil
}

func (ctx *RenderContext) renderGroup(g ConditionGroup, sb *strings.Builder, args *[]any) error {
	items := make([]ConditionItem, 0, len(g.Items))
	for _, it := range g.Items {
		if !Empty(it) {
			items = append(items, it)
		}
	}
	switch len(items) {
	case 0:
		return nil
	case 1:
		// A single item never introduces wrapping parentheses.
		return ctx.RenderItem(items[0], sb, args)
	}

	sb.WriteString("(")
	for i, sub := range items {
		if i > 0 {
			fmt.Fprintf(sb, " %s ", g.Logic)
		}
		if err := ctx.RenderItem(sub, sb, args); err != nil {
			return err
		}
	}
	sb.WriteString(")")
	return nil
}

func (ctx *RenderContext) renderSubquery(sc SubqueryCondition, sb *strings.Builder, args *[]any) error {
	if ctx.Compile == nil {
		return fmt.Errorf("subquery conditions are not supported in this context")
	}
	stmt, err := ctx.Compile(sc.Query)
	if err != nil {
		return err
	}

	switch sc.Operator {
	case "":
		// Bare subquery grouping value: parenthesised fragment.
		fmt.Fprintf(sb, "(%s)", stmt.SQL)
	case EXISTS, NotExists:
		fmt.Fprintf(sb, "%s (%s)", sc.Operator, stmt.SQL)
	default:
		if sc.Field == "" {
			return fmt.Errorf("operator %s requires a field", sc.Operator)
		}
		column, err := ctx.Resolve(sc.Field)
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "%s %s (%s)", column, sc.Operator, stmt.SQL)
	}
	*args = append(*args, stmt.Args...)
	return nil
}
