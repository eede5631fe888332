package relq

import (
	"strings"

	"github.com/zoobzio/relq/internal/types"
)

// defaultBatchSize is the chunk size for concurrent batch writes.
const defaultBatchSize = 500

// Query describes one declarative operation against a model. Options are
// a closed set of methods; a later compile pass turns the description into
// a single parameterized statement. A query carries a sticky internal
// error: the first failing option poisons the query and surfaces on
// compile or execution.
//
// A query attached to a parent via Join is marked as a child and cannot be
// executed directly. A root query is single-use; Clone it for a second
// operation.
type Query struct {
	model *Model
	err   error

	fields     []string
	where      []types.ConditionItem
	whereNot   []types.ConditionItem
	orWhere    []types.ConditionItem
	orWhereNot []types.ConditionItem
	groupBy    []string
	having     []types.ConditionItem
	orHaving   []types.ConditionItem
	orderBy    []types.OrderBy
	limit      *int
	offset     *int
	first      bool
	require    bool
	forge      bool
	lock       types.LockMode
	batchSize  int

	countField    string
	countDistinct bool

	// Join-child state.
	parent   *Query
	children []*Query
	as       string
	on       string
	required bool

	// Compile/execution state.
	alias    string
	executed bool
}

// NewQuery binds a query to a model. It fails with a ConfigurationError if
// the model is absent, has no table, or has no identity field.
func NewQuery(m *Model) (*Query, error) {
	switch {
	case m == nil:
		return nil, newConfigurationError("", "missing model")
	case m.Table == "":
		return nil, newConfigurationError(m.Name, "model has no table")
	case m.Identity() == nil:
		return nil, newConfigurationError(m.Name, "model has no identity field")
	}
	return &Query{model: m, forge: true, batchSize: defaultBatchSize}, nil
}

// MustQuery binds a query to a model, panicking on misconfiguration.
func MustQuery(m *Model) *Query {
	q, err := NewQuery(m)
	if err != nil {
		panic(err)
	}
	return q
}

// Model returns the model the query is bound to.
func (q *Query) Model() *Model {
	return q.model
}

// Err returns the sticky option error, if any.
func (q *Query) Err() error {
	return q.err
}

// fieldName normalises a string or *Field argument, validating that it
// names a field on the query's own model.
func (q *Query) fieldName(v any) (string, bool) {
	switch f := v.(type) {
	case string:
		if _, err := q.model.resolveField(f); err != nil {
			q.err = err
			return "", false
		}
		return f, true
	case *Field:
		if f.model != q.model {
			owner := "no model"
			if f.model != nil {
				owner = f.model.Name
			}
			q.err = newUsageError(q.model.Name, f.Name, "field belongs to "+owner)
			return "", false
		}
		return f.Name, true
	default:
		q.err = newUsageError(q.model.Name, "", "field arguments must be strings or *Field")
		return "", false
	}
}

// Fields restricts the selected (or returned) fields. Arguments are field
// names or *Field values owned by the query's model. The identity field is
// force-included at compile time regardless.
func (q *Query) Fields(fields ...any) *Query {
	if q.err != nil {
		return q
	}
	for _, v := range fields {
		name, ok := q.fieldName(v)
		if !ok {
			return q
		}
		q.fields = append(q.fields, name)
	}
	return q
}

// whereMap validates map keys eagerly so unknown fields fail before I/O.
func (q *Query) whereMap(values M, bucket *[]types.ConditionItem) *Query {
	if q.err != nil {
		return q
	}
	for k := range values {
		if _, err := q.model.resolveField(k); err != nil {
			q.err = err
			return q
		}
	}
	*bucket = append(*bucket, expandMap(values))
	return q
}

// Where adds field→value equality pairs ANDed into the filter.
func (q *Query) Where(values M) *Query {
	return q.whereMap(values, &q.where)
}

// WhereNot adds negated field→value pairs ANDed into the filter.
func (q *Query) WhereNot(values M) *Query {
	return q.whereMap(values, &q.whereNot)
}

// OrWhere adds field→value pairs ORed against the preceding filter.
func (q *Query) OrWhere(values M) *Query {
	return q.whereMap(values, &q.orWhere)
}

// OrWhereNot adds negated field→value pairs ORed against the filter.
func (q *Query) OrWhereNot(values M) *Query {
	return q.whereMap(values, &q.orWhereNot)
}

// WhereItem adds an arbitrary condition tree (conditions, groupings, raw
// fragments, subqueries) ANDed into the filter.
func (q *Query) WhereItem(item ConditionItem) *Query {
	if q.err != nil {
		return q
	}
	q.where = append(q.where, item)
	return q
}

// GroupBy adds grouping fields.
func (q *Query) GroupBy(fields ...any) *Query {
	if q.err != nil {
		return q
	}
	for _, v := range fields {
		name, ok := q.fieldName(v)
		if !ok {
			return q
		}
		q.groupBy = append(q.groupBy, name)
	}
	return q
}

// Having adds a HAVING condition ANDed into the having filter.
func (q *Query) Having(item ConditionItem) *Query {
	if q.err != nil {
		return q
	}
	q.having = append(q.having, item)
	return q
}

// OrHaving adds a HAVING condition ORed against the having filter.
func (q *Query) OrHaving(item ConditionItem) *Query {
	if q.err != nil {
		return q
	}
	q.orHaving = append(q.orHaving, item)
	return q
}

// OrderBy adds an ordering entry.
func (q *Query) OrderBy(field any, dir Direction) *Query {
	if q.err != nil {
		return q
	}
	name, ok := q.fieldName(field)
	if !ok {
		return q
	}
	q.orderBy = append(q.orderBy, types.OrderBy{Field: name, Direction: dir})
	return q
}

// Limit caps the number of fetched rows. Root queries only; children
// never apply their own limit.
func (q *Query) Limit(n int) *Query {
	if q.err != nil {
		return q
	}
	q.limit = &n
	return q
}

// Offset skips rows. Root queries only.
func (q *Query) Offset(n int) *Query {
	if q.err != nil {
		return q
	}
	q.offset = &n
	return q
}

// First makes the fetch return a single record, forcing limit 1.
func (q *Query) First() *Query {
	if q.err != nil {
		return q
	}
	q.first = true
	return q
}

// Require turns a zero-row result into a RowsNotFoundError.
func (q *Query) Require() *Query {
	if q.err != nil {
		return q
	}
	q.require = true
	return q
}

// Forge controls whether reconstructed rows become typed instances (the
// default) or plain record bags.
func (q *Query) Forge(on bool) *Query {
	if q.err != nil {
		return q
	}
	q.forge = on
	return q
}

// Lock appends a row-locking clause on dialects that support one.
func (q *Query) Lock(mode LockMode) *Query {
	if q.err != nil {
		return q
	}
	q.lock = mode
	return q
}

// BatchSize configures the chunk size for concurrent batch writes.
func (q *Query) BatchSize(n int) *Query {
	if q.err != nil {
		return q
	}
	if n < 1 {
		q.err = newUsageError(q.model.Name, "", "batch size must be positive")
		return q
	}
	q.batchSize = n
	return q
}

// CountField makes Count count the given column instead of all rows.
// NULL values in the column do not count.
func (q *Query) CountField(field any) *Query {
	if q.err != nil {
		return q
	}
	name, ok := q.fieldName(field)
	if !ok {
		return q
	}
	q.countField = name
	return q
}

// CountDistinct makes Count count distinct non-NULL values of the column.
func (q *Query) CountDistinct(field any) *Query {
	q.CountField(field)
	if q.err != nil {
		return q
	}
	q.countDistinct = true
	return q
}

// As sets the output key a child's results attach under on the parent.
// Defaults to the lowercased model name.
func (q *Query) As(key string) *Query {
	if q.err != nil {
		return q
	}
	q.as = key
	return q
}

// On restricts the join to a single reference field instead of the full
// reference bucket. The argument is a field name or a *Field; which model
// owns it depends on the join direction, so it resolves during join
// compilation rather than eagerly.
func (q *Query) On(field any) *Query {
	if q.err != nil {
		return q
	}
	switch f := field.(type) {
	case string:
		q.on = f
	case *Field:
		q.on = f.Name
	default:
		q.err = newUsageError(q.model.Name, "", "field arguments must be strings or *Field")
	}
	return q
}

// Required makes the join strict: the child compiles to an INNER JOIN
// instead of a LEFT JOIN.
func (q *Query) Required() *Query {
	if q.err != nil {
		return q
	}
	q.required = true
	return q
}

// Join attaches a child query. The child is compiled into the same
// statement via an SQL join and may itself carry further children,
// including references back to models already present in the chain.
func (q *Query) Join(child *Query) *Query {
	if q.err != nil {
		return q
	}
	if child == nil {
		q.err = newUsageError(q.model.Name, "", "cannot join a nil query")
		return q
	}
	if child.err != nil {
		q.err = child.err
		return q
	}
	if child.parent != nil {
		q.err = newUsageError(child.model.Name, "", "query is already joined to a parent")
		return q
	}
	child.parent = q
	q.children = append(q.children, child)
	return q
}

// outputKey is the key a child's results attach under on the parent.
func (q *Query) outputKey() string {
	if q.as != "" {
		return q.as
	}
	return strings.ToLower(q.model.Name)
}

// isChild reports whether the query is attached to a parent.
func (q *Query) isChild() bool {
	return q.parent != nil
}

// Clone returns an executable copy of the query and its children. The
// copy carries no compile or execution state.
func (q *Query) Clone() *Query {
	c := &Query{
		model:     q.model,
		err:       q.err,
		fields:    append([]string(nil), q.fields...),
		groupBy:   append([]string(nil), q.groupBy...),
		orderBy:   append([]types.OrderBy(nil), q.orderBy...),
		first:     q.first,
		require:   q.require,
		forge:     q.forge,
		lock:      q.lock,
		batchSize: q.batchSize,

		countField:    q.countField,
		countDistinct: q.countDistinct,

		as:        q.as,
		on:        q.on,
		required:  q.required,
	}
	c.where = append([]types.ConditionItem(nil), q.where...)
	c.whereNot = append([]types.ConditionItem(nil), q.whereNot...)
	c.orWhere = append([]types.ConditionItem(nil), q.orWhere...)
	c.orWhereNot = append([]types.ConditionItem(nil), q.orWhereNot...)
	c.having = append([]types.ConditionItem(nil), q.having...)
	c.orHaving = append([]types.ConditionItem(nil), q.orHaving...)
	if q.limit != nil {
		n := *q.limit
		c.limit = &n
	}
	if q.offset != nil {
		n := *q.offset
		c.offset = &n
	}
	for _, child := range q.children {
		cc := child.Clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}
