package relq

import (
	"context"
	"database/sql"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/relq/internal/types"
)

// Executor runs compiled statements. *sql.DB, *sql.Tx, and *sql.Conn all
// satisfy it; passing a transaction scopes every statement of a root
// query and its children to that transaction. Child queries never
// acquire their own connection: a joined fetch is one statement.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
	_ Executor = (*sql.Conn)(nil)
)

// begin gates one execution: sticky option errors surface here, join
// children cannot execute directly, and a root query is single-use.
func (q *Query) begin() error {
	if q.err != nil {
		return q.err
	}
	if q.isChild() {
		return newUsageError(q.model.Name, "", "cannot execute a query joined as a child")
	}
	if q.executed {
		return newUsageError(q.model.Name, "", "query already executed; Clone it for another operation")
	}
	q.executed = true
	return nil
}

// scanRows drains a result set into flat maps keyed by output column
// name. Byte slices become strings so drivers that return raw bytes for
// text columns still produce comparable identity keys.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Fetch compiles and runs the SELECT for the query tree and reconstructs
// the result graph. Joins execute as part of the same single statement.
// With Require set, zero rows is a RowsNotFoundError.
func (q *Query) Fetch(ctx context.Context, d Dialect, ex Executor) ([]Node, error) {
	if err := q.begin(); err != nil {
		return nil, err
	}
	c := &compiler{d: d}
	text, args, err := c.fetchSQL(q, true)
	if err != nil {
		return nil, err
	}
	rows, err := ex.QueryContext(ctx, rebind(text, d), args...)
	if err != nil {
		return nil, newOperationError(types.OpFetch, q, err)
	}
	flat, err := scanRows(rows)
	if err != nil {
		return nil, newOperationError(types.OpFetch, q, err)
	}
	out := parseRows(q, flat)
	if len(out) == 0 && q.require {
		return nil, newRowsNotFoundError(types.OpFetch, q.model.Name, q.first)
	}
	return out, nil
}

// FetchOne fetches a single record, forcing limit 1. It returns nil when
// nothing matched, unless Require is set.
func (q *Query) FetchOne(ctx context.Context, d Dialect, ex Executor) (Node, error) {
	if q.err == nil {
		q.first = true
	}
	out, err := q.Fetch(ctx, d, ex)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// Count runs the count statement: all rows by default, or the column
// configured via CountField/CountDistinct. Zero is a valid result unless
// Require is set.
func (q *Query) Count(ctx context.Context, d Dialect, ex Executor) (int64, error) {
	if err := q.begin(); err != nil {
		return 0, err
	}
	c := &compiler{d: d}
	text, args, err := c.countSQL(q, q.countField, q.countDistinct)
	if err != nil {
		return 0, err
	}
	rows, err := ex.QueryContext(ctx, rebind(text, d), args...)
	if err != nil {
		return 0, newOperationError(types.OpCount, q, err)
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, newOperationError(types.OpCount, q, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, newOperationError(types.OpCount, q, err)
	}
	if n == 0 && q.require {
		return 0, newRowsNotFoundError(types.OpCount, q.model.Name, false)
	}
	return n, nil
}

// prepareWrite applies a field's write hooks in order: default population
// (insert only), validation, then casting. The record is passed to hooks
// explicitly so they can read sibling values.
func (q *Query) prepareWrite(rec M, defaults bool) (map[string]any, error) {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		if _, err := q.model.resolveField(k); err != nil {
			return nil, err
		}
		out[k] = v
	}
	for _, name := range q.model.order {
		f := q.model.fields[name]
		if defaults {
			if v, ok := out[name]; !ok || v == nil {
				switch {
				case f.DefaultFn != nil:
					out[name] = f.DefaultFn()
				case f.Default != nil:
					out[name] = f.Default
				}
			}
		}
		v, ok := out[name]
		if !ok {
			continue
		}
		if f.Validate != nil {
			if err := f.Validate(v, out); err != nil {
				return nil, err
			}
		}
		if f.Cast != nil {
			cast, err := f.Cast(v, out)
			if err != nil {
				return nil, err
			}
			out[name] = cast
		}
	}
	return out, nil
}

// chunkRecords splits records into batches of at most size.
func chunkRecords(records []map[string]any, size int) [][]map[string]any {
	var chunks [][]map[string]any
	for len(records) > size {
		chunks = append(chunks, records[:size])
		records = records[size:]
	}
	return append(chunks, records)
}

// Insert writes one or more records in a single statement per batch.
// Batches above the configured batch size dispatch concurrently; the
// merged result order is NOT guaranteed to match input order, so callers
// must not rely on positional correspondence when batching kicks in.
//
// On dialects with RETURNING the returned nodes carry database-populated
// values; elsewhere they are forged from the prepared input records.
func (q *Query) Insert(ctx context.Context, d Dialect, ex Executor, records ...M) ([]Node, error) {
	if err := q.begin(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, newUsageError(q.model.Name, "", "INSERT requires at least one record")
	}
	q.alias = q.model.Table

	prepared := make([]map[string]any, len(records))
	for i, rec := range records {
		p, err := q.prepareWrite(rec, true)
		if err != nil {
			return nil, err
		}
		prepared[i] = p
	}

	var mu sync.Mutex
	var out []Node
	g, gctx := errgroup.WithContext(ctx)
	for _, batch := range chunkRecords(prepared, q.batchSize) {
		g.Go(func() error {
			c := &compiler{d: d}
			text, args, err := c.insertSQL(q, batch)
			if err != nil {
				return err
			}
			var nodes []Node
			if d.SupportsReturning() {
				rows, err := ex.QueryContext(gctx, rebind(text, d), args...)
				if err != nil {
					return newOperationError(types.OpInsert, q, err)
				}
				flat, err := scanRows(rows)
				if err != nil {
					return newOperationError(types.OpInsert, q, err)
				}
				nodes = parseRows(q, flat)
			} else {
				if _, err := ex.ExecContext(gctx, rebind(text, d), args...); err != nil {
					return newOperationError(types.OpInsert, q, err)
				}
				nodes = make([]Node, len(batch))
				for i, rec := range batch {
					nodes[i] = materialize(q, rec)
				}
			}
			mu.Lock()
			out = append(out, nodes...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies one set of field changes to every row matching the
// query's filter, in a single statement. On dialects with RETURNING it
// returns the updated records; elsewhere it returns nil nodes. With
// Require set, matching zero rows is a RowsNotFoundError.
func (q *Query) Update(ctx context.Context, d Dialect, ex Executor, set M) ([]Node, error) {
	if err := q.begin(); err != nil {
		return nil, err
	}
	q.alias = q.model.Table

	prepared, err := q.prepareWrite(set, false)
	if err != nil {
		return nil, err
	}
	c := &compiler{d: d}
	text, args, err := c.updateSQL(q, prepared)
	if err != nil {
		return nil, err
	}

	if d.SupportsReturning() {
		rows, err := ex.QueryContext(ctx, rebind(text, d), args...)
		if err != nil {
			return nil, newOperationError(types.OpUpdate, q, err)
		}
		flat, err := scanRows(rows)
		if err != nil {
			return nil, newOperationError(types.OpUpdate, q, err)
		}
		nodes := parseRows(q, flat)
		if len(nodes) == 0 && q.require {
			return nil, newRowsNotFoundError(types.OpUpdate, q.model.Name, q.first)
		}
		return nodes, nil
	}

	res, err := ex.ExecContext(ctx, rebind(text, d), args...)
	if err != nil {
		return nil, newOperationError(types.OpUpdate, q, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, newOperationError(types.OpUpdate, q, err)
	}
	if affected == 0 && q.require {
		return nil, newRowsNotFoundError(types.OpUpdate, q.model.Name, q.first)
	}
	return nil, nil
}

// UpdateMany updates each record by its identity value, one statement per
// record, dispatched in concurrent batches. Every record must carry the
// identity field. Like Insert, the merged result order is not guaranteed
// to match input order.
func (q *Query) UpdateMany(ctx context.Context, d Dialect, ex Executor, records ...M) ([]Node, error) {
	if err := q.begin(); err != nil {
		return nil, err
	}
	q.alias = q.model.Table
	identity := q.model.identity

	prepared := make([]map[string]any, len(records))
	for i, rec := range records {
		if _, ok := rec[identity]; !ok {
			return nil, newUsageError(q.model.Name, identity, "batch update records must carry the identity field")
		}
		p, err := q.prepareWrite(rec, false)
		if err != nil {
			return nil, err
		}
		prepared[i] = p
	}

	var mu sync.Mutex
	var out []Node
	g, gctx := errgroup.WithContext(ctx)
	for _, batch := range chunkRecords(prepared, q.batchSize) {
		g.Go(func() error {
			var nodes []Node
			for _, rec := range batch {
				// Narrow the query's filter to this record's identity.
				one := q.Clone()
				one.alias = q.alias
				one.where = append(one.where, types.Condition{
					Field:    identity,
					Operator: types.EQ,
					Values:   []any{rec[identity]},
				})

				set := make(map[string]any, len(rec)-1)
				for k, v := range rec {
					if k != identity {
						set[k] = v
					}
				}

				c := &compiler{d: d}
				text, args, err := c.updateSQL(one, set)
				if err != nil {
					return err
				}
				if d.SupportsReturning() {
					rows, err := ex.QueryContext(gctx, rebind(text, d), args...)
					if err != nil {
						return newOperationError(types.OpUpdate, q, err)
					}
					flat, err := scanRows(rows)
					if err != nil {
						return newOperationError(types.OpUpdate, q, err)
					}
					nodes = append(nodes, parseRows(one, flat)...)
				} else {
					if _, err := ex.ExecContext(gctx, rebind(text, d), args...); err != nil {
						return newOperationError(types.OpUpdate, q, err)
					}
					nodes = append(nodes, materialize(q, rec))
				}
			}
			mu.Lock()
			out = append(out, nodes...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes every row matching the query's filter, in a single
// statement. On dialects with RETURNING it returns the deleted records;
// elsewhere it returns nil nodes. With Require set, deleting zero rows
// is a RowsNotFoundError.
func (q *Query) Delete(ctx context.Context, d Dialect, ex Executor) ([]Node, error) {
	if err := q.begin(); err != nil {
		return nil, err
	}
	q.alias = q.model.Table

	c := &compiler{d: d}
	text, args, err := c.deleteSQL(q)
	if err != nil {
		return nil, err
	}

	if d.SupportsReturning() {
		rows, err := ex.QueryContext(ctx, rebind(text, d), args...)
		if err != nil {
			return nil, newOperationError(types.OpDelete, q, err)
		}
		flat, err := scanRows(rows)
		if err != nil {
			return nil, newOperationError(types.OpDelete, q, err)
		}
		nodes := parseRows(q, flat)
		if len(nodes) == 0 && q.require {
			return nil, newRowsNotFoundError(types.OpDelete, q.model.Name, false)
		}
		return nodes, nil
	}

	res, err := ex.ExecContext(ctx, rebind(text, d), args...)
	if err != nil {
		return nil, newOperationError(types.OpDelete, q, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, newOperationError(types.OpDelete, q, err)
	}
	if affected == 0 && q.require {
		return nil, newRowsNotFoundError(types.OpDelete, q.model.Name, false)
	}
	return nil, nil
}
