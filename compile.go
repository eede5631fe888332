package relq

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zoobzio/relq/internal/types"
)

// compiler renders one query tree into a single parameterized statement.
// All internal rendering uses `?` placeholders; the dialect's native style
// is rebound once at the end.
type compiler struct {
	d Dialect
}

// Compile renders the fetch statement for a root query. Exposed so
// callers can inspect or execute the SQL themselves.
func (q *Query) Compile(d Dialect) (*Statement, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.isChild() {
		return nil, newUsageError(q.model.Name, "", "cannot compile a query joined as a child")
	}
	c := &compiler{d: d}
	sql, args, err := c.fetchSQL(q, true)
	if err != nil {
		return nil, err
	}
	return &Statement{SQL: rebind(sql, d), Args: args}, nil
}

// qualifier returns the rendered alias prefix for a query: the quoted
// table name for the root, the bare t<N> alias for children.
func (c *compiler) qualifier(q *Query) string {
	if q.alias == q.model.Table {
		return c.d.QuoteIdent(q.alias)
	}
	return q.alias
}

// resolver maps field names to alias-qualified quoted columns for one
// query in the tree.
func (c *compiler) resolver(q *Query) func(string) (string, error) {
	return func(name string) (string, error) {
		f, err := q.model.resolveField(name)
		if err != nil {
			return "", err
		}
		return c.qualifier(q) + "." + c.d.QuoteIdent(f.column()), nil
	}
}

// renderContext builds the expression-tree render context for one query,
// wiring subquery compilation back into the compiler.
func (c *compiler) renderContext(q *Query) *types.RenderContext {
	return &types.RenderContext{
		Resolve: c.resolver(q),
		Compile: func(v any) (types.Statement, error) {
			sub, ok := v.(*Query)
			if !ok {
				return types.Statement{}, fmt.Errorf("relq: subquery must be a *Query, got %T", v)
			}
			if sub.err != nil {
				return types.Statement{}, sub.err
			}
			sql, args, err := c.fetchSQL(sub, false)
			if err != nil {
				return types.Statement{}, err
			}
			return types.Statement{SQL: sql, Args: args}, nil
		},
	}
}

// whereExpr combines the four where families into one expression tree:
// where and whereNot AND together, orWhere and orWhereNot attach with OR.
func whereExpr(q *Query) types.ConditionItem {
	return familyExpr(q.where, q.whereNot, q.orWhere, q.orWhereNot)
}

// havingExpr combines the having families.
func havingExpr(q *Query) types.ConditionItem {
	return familyExpr(q.having, nil, q.orHaving, nil)
}

func familyExpr(and, andNot, or, orNot []types.ConditionItem) types.ConditionItem {
	var andItems []types.ConditionItem
	andItems = append(andItems, and...)
	for _, it := range andNot {
		andItems = append(andItems, types.Not{Item: it})
	}

	var top []types.ConditionItem
	if len(andItems) > 0 {
		top = append(top, types.ConditionGroup{Logic: types.AND, Items: andItems})
	}
	top = append(top, or...)
	for _, it := range orNot {
		top = append(top, types.Not{Item: it})
	}

	if len(top) == 0 {
		return nil
	}
	return types.ConditionGroup{Logic: types.OR, Items: top}
}

// renderTreeClause renders an expression per query across the whole tree,
// ANDing the non-empty parts, and writes "<keyword> ..." if any rendered.
func (c *compiler) renderTreeClause(queries []*Query, keyword string, expr func(*Query) types.ConditionItem, sb *strings.Builder, args *[]any) error {
	var parts []string
	for _, q := range queries {
		item := expr(q)
		if item == nil || types.Empty(item) {
			continue
		}
		var part strings.Builder
		if err := c.renderContext(q).RenderItem(item, &part, args); err != nil {
			return err
		}
		parts = append(parts, part.String())
	}
	if len(parts) == 0 {
		return nil
	}
	fmt.Fprintf(sb, " %s %s", keyword, strings.Join(parts, " AND "))
	return nil
}

// selectFields returns the output field names for one query: the caller's
// list, or every model field. The identity field is force-included either
// way; row reconstruction needs it for deduplication.
func selectFields(q *Query) []string {
	identity := q.model.identity
	if len(q.fields) == 0 {
		names := make([]string, 0, len(q.model.order))
		names = append(names, q.model.order...)
		return names
	}
	for _, name := range q.fields {
		if name == identity {
			return q.fields
		}
	}
	return append([]string{identity}, q.fields...)
}

// fetchSQL renders a complete SELECT for the query tree. When aliased is
// true every column carries an "alias.field" output alias for the row
// parser; subqueries render plain columns instead.
func (c *compiler) fetchSQL(q *Query, aliased bool) (string, []any, error) {
	assignAliases(q)
	edges, err := resolveJoins(q)
	if err != nil {
		return "", nil, err
	}
	queries := flatten(q)

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	var cols []string
	for _, part := range queries {
		resolve := c.resolver(part)
		names := selectFields(part)
		if !aliased && len(part.fields) > 0 {
			// Subqueries render exactly the caller's columns; identity
			// forcing is only for row reconstruction.
			names = part.fields
		}
		for _, name := range names {
			column, err := resolve(name)
			if err != nil {
				return "", nil, err
			}
			if aliased {
				column += " AS " + c.d.QuoteIdent(part.alias+"."+name)
			}
			cols = append(cols, column)
		}
	}
	sb.WriteString(strings.Join(cols, ", "))

	sb.WriteString(" FROM ")
	sb.WriteString(c.d.QuoteIdent(q.model.Table))

	for _, edge := range edges {
		fmt.Fprintf(&sb, " %s %s %s ON ", edge.kind, c.d.QuoteIdent(edge.child.model.Table), edge.child.alias)
		for i, pair := range edge.pairs {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			fmt.Fprintf(&sb, "%s.%s = %s.%s",
				c.qualifier(edge.parent), c.d.QuoteIdent(pair.parentField.column()),
				edge.child.alias, c.d.QuoteIdent(pair.childField.column()))
		}
	}

	if err := c.renderTreeClause(queries, "WHERE", whereExpr, &sb, &args); err != nil {
		return "", nil, err
	}

	var groups []string
	for _, part := range queries {
		resolve := c.resolver(part)
		for _, name := range part.groupBy {
			column, err := resolve(name)
			if err != nil {
				return "", nil, err
			}
			groups = append(groups, column)
		}
	}
	if len(groups) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groups, ", "))
	}

	if err := c.renderTreeClause(queries, "HAVING", havingExpr, &sb, &args); err != nil {
		return "", nil, err
	}

	var orders []string
	for _, part := range queries {
		resolve := c.resolver(part)
		for _, ob := range part.orderBy {
			column, err := resolve(ob.Field)
			if err != nil {
				return "", nil, err
			}
			orders = append(orders, fmt.Sprintf("%s %s", column, ob.Direction))
		}
	}
	if len(orders) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orders, ", "))
	}

	// Limit, offset, and locking apply to the root only; children never
	// carry their own.
	limit := q.limit
	if q.first {
		one := 1
		limit = &one
	}
	sb.WriteString(c.d.Pagination(limit, q.offset, len(orders) > 0))

	if q.lock != types.LockNone && c.d.SupportsRowLocking() {
		sb.WriteString(" ")
		sb.WriteString(string(q.lock))
	}

	return sb.String(), args, nil
}

// countSQL renders the count statement: joins and where apply, the select
// list is always the single count expression regardless of configured
// fields.
func (c *compiler) countSQL(q *Query, field string, distinct bool) (string, []any, error) {
	assignAliases(q)
	edges, err := resolveJoins(q)
	if err != nil {
		return "", nil, err
	}
	queries := flatten(q)

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT COUNT(")
	if field == "" {
		sb.WriteString("*")
	} else {
		column, err := c.resolver(q)(field)
		if err != nil {
			return "", nil, err
		}
		if distinct {
			sb.WriteString("DISTINCT ")
		}
		sb.WriteString(column)
	}
	sb.WriteString(") FROM ")
	sb.WriteString(c.d.QuoteIdent(q.model.Table))

	for _, edge := range edges {
		fmt.Fprintf(&sb, " %s %s %s ON ", edge.kind, c.d.QuoteIdent(edge.child.model.Table), edge.child.alias)
		for i, pair := range edge.pairs {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			fmt.Fprintf(&sb, "%s.%s = %s.%s",
				c.qualifier(edge.parent), c.d.QuoteIdent(pair.parentField.column()),
				edge.child.alias, c.d.QuoteIdent(pair.childField.column()))
		}
	}

	if err := c.renderTreeClause(queries, "WHERE", whereExpr, &sb, &args); err != nil {
		return "", nil, err
	}
	return sb.String(), args, nil
}

// returningClause renders the RETURNING list on dialects that support it.
func (c *compiler) returningClause(q *Query, sb *strings.Builder) {
	if !c.d.SupportsReturning() {
		return
	}
	resolve := func(name string) string {
		f, _ := q.model.Field(name)
		return c.d.QuoteIdent(f.column()) + " AS " + c.d.QuoteIdent(q.alias+"."+name)
	}
	var cols []string
	for _, name := range selectFields(q) {
		cols = append(cols, resolve(name))
	}
	sb.WriteString(" RETURNING ")
	sb.WriteString(strings.Join(cols, ", "))
}

// insertSQL renders a multi-row INSERT. Every row must carry the same
// field set; columns render in sorted field-name order so map iteration
// cannot leak into the SQL.
func (c *compiler) insertSQL(q *Query, rows []map[string]any) (string, []any, error) {
	if len(q.children) > 0 {
		return "", nil, newUsageError(q.model.Name, "", "joins are not supported for INSERT")
	}
	if len(rows) == 0 {
		return "", nil, newUsageError(q.model.Name, "", "INSERT requires at least one record")
	}
	if q.alias == "" {
		q.alias = q.model.Table
	}

	names := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, row := range rows[1:] {
		if len(row) != len(names) {
			return "", nil, newUsageError(q.model.Name, "", fmt.Sprintf("record %d has a different field set", i+1))
		}
		for _, name := range names {
			if _, ok := row[name]; !ok {
				return "", nil, newUsageError(q.model.Name, "", fmt.Sprintf("record %d has a different field set", i+1))
			}
		}
	}

	var sb strings.Builder
	var args []any

	fmt.Fprintf(&sb, "INSERT INTO %s (", c.d.QuoteIdent(q.model.Table))
	for i, name := range names {
		f, err := q.model.resolveField(name)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.d.QuoteIdent(f.column()))
	}
	sb.WriteString(") VALUES ")

	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, name := range names {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, row[name])
		}
		sb.WriteString(")")
	}

	c.returningClause(q, &sb)
	return sb.String(), args, nil
}

// updateSQL renders an UPDATE with the root's where families. Set fields
// render in sorted order for deterministic output.
func (c *compiler) updateSQL(q *Query, set map[string]any) (string, []any, error) {
	if len(q.children) > 0 {
		return "", nil, newUsageError(q.model.Name, "", "joins are not supported for UPDATE")
	}
	if len(set) == 0 {
		return "", nil, newUsageError(q.model.Name, "", "UPDATE requires at least one field to set")
	}
	if q.alias == "" {
		q.alias = q.model.Table
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	var args []any

	fmt.Fprintf(&sb, "UPDATE %s SET ", c.d.QuoteIdent(q.model.Table))
	for i, name := range names {
		f, err := q.model.resolveField(name)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = ?", c.d.QuoteIdent(f.column()))
		args = append(args, set[name])
	}

	if err := c.renderTreeClause([]*Query{q}, "WHERE", whereExpr, &sb, &args); err != nil {
		return "", nil, err
	}
	c.returningClause(q, &sb)
	return sb.String(), args, nil
}

// deleteSQL renders a DELETE with the root's where families.
func (c *compiler) deleteSQL(q *Query) (string, []any, error) {
	if len(q.children) > 0 {
		return "", nil, newUsageError(q.model.Name, "", "joins are not supported for DELETE")
	}
	if q.alias == "" {
		q.alias = q.model.Table
	}

	var sb strings.Builder
	var args []any

	fmt.Fprintf(&sb, "DELETE FROM %s", c.d.QuoteIdent(q.model.Table))
	if err := c.renderTreeClause([]*Query{q}, "WHERE", whereExpr, &sb, &args); err != nil {
		return "", nil, err
	}
	c.returningClause(q, &sb)
	return sb.String(), args, nil
}
