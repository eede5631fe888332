package relq

import (
	"fmt"

	"github.com/zoobzio/relq/internal/types"
)

// joinEdge is one resolved join: the child query, its strictness, and the
// ON-clause field pairs (parent side, child side).
type joinEdge struct {
	parent *Query
	child  *Query
	kind   types.JoinKind
	pairs  []joinPair
}

// joinPair is a single ON-clause column equality.
type joinPair struct {
	parentField *Field
	childField  *Field
}

// assignAliases walks the query tree assigning table aliases: the root
// keeps its table name, every child gets t<N> from one strictly increasing
// counter. Aliases stay globally unique within the compiled statement, so
// cyclic join chains where the same model appears twice cannot collide.
func assignAliases(root *Query) {
	root.alias = root.model.Table
	counter := 0
	var walk func(q *Query)
	walk = func(q *Query) {
		for _, child := range q.children {
			counter++
			child.alias = fmt.Sprintf("t%d", counter)
			walk(child)
		}
	}
	walk(root)
}

// flatten returns the query tree in depth-first order, root first. Row
// parsing and select-list assembly both follow this order.
func flatten(root *Query) []*Query {
	out := []*Query{root}
	for _, child := range root.children {
		out = append(out, flatten(child)...)
	}
	return out
}

// resolveJoins resolves every join edge in the tree, depth first.
func resolveJoins(root *Query) ([]joinEdge, error) {
	var edges []joinEdge
	var walk func(q *Query) error
	walk = func(q *Query) error {
		for _, child := range q.children {
			edge, err := resolveJoin(q, child)
			if err != nil {
				return err
			}
			edges = append(edges, edge)
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return edges, nil
}

// resolveJoin determines the direction and ON-clause pairs for one join.
//
// Forward: the parent model holds the foreign key, found in its outgoing
// reference bucket for the child's model. Reverse: the child holds the
// foreign key back to the parent. When neither bucket exists the two
// models have no reference path and the join is a usage error naming both.
//
// An On restriction narrows the pairs to a single reference field. For a
// forward join it names the parent's referencing field. For a reverse join
// it is looked up against the child's outgoing bucket first, then against
// the parent's incoming bucket keyed by the parent field name.
func resolveJoin(parent, child *Query) (joinEdge, error) {
	edge := joinEdge{parent: parent, child: child, kind: types.LeftJoin}
	if child.required {
		edge.kind = types.InnerJoin
	}

	pm, cm := parent.model, child.model

	if bucket, ok := pm.references[cm.Name]; ok && len(bucket) > 0 {
		// Forward: parent field -> child field.
		if child.on != "" {
			target, ok := bucket[child.on]
			if !ok {
				return edge, newUsageError(pm.Name, child.on, "no reference to "+cm.Name+" through this field")
			}
			src, _ := pm.Field(child.on)
			edge.pairs = []joinPair{{parentField: src, childField: target}}
			return edge, nil
		}
		for name, target := range bucket {
			src, _ := pm.Field(name)
			edge.pairs = append(edge.pairs, joinPair{parentField: src, childField: target})
		}
		sortPairs(edge.pairs)
		return edge, nil
	}

	if bucket, ok := cm.references[pm.Name]; ok && len(bucket) > 0 {
		// Reverse: child field -> parent field.
		if child.on != "" {
			if target, ok := bucket[child.on]; ok {
				src, _ := cm.Field(child.on)
				edge.pairs = []joinPair{{parentField: target, childField: src}}
				return edge, nil
			}
			// Fall back to the parent's incoming bucket: the
			// restriction names the referenced parent field.
			if incoming, ok := pm.referenced[cm.Name]; ok {
				if sources, ok := incoming[child.on]; ok && len(sources) > 0 {
					target, _ := pm.Field(child.on)
					for _, src := range sources {
						edge.pairs = append(edge.pairs, joinPair{parentField: target, childField: src})
					}
					return edge, nil
				}
			}
			return edge, newUsageError(cm.Name, child.on, "no reference to "+pm.Name+" through this field")
		}
		for name, target := range bucket {
			src, _ := cm.Field(name)
			edge.pairs = append(edge.pairs, joinPair{parentField: target, childField: src})
		}
		sortPairs(edge.pairs)
		return edge, nil
	}

	return edge, newUsageError(pm.Name, "", fmt.Sprintf("no reference path between %s and %s", pm.Name, cm.Name))
}

// sortPairs orders ON-clause pairs by parent then child field name so map
// iteration cannot leak into the generated SQL.
func sortPairs(pairs []joinPair) {
	key := func(p joinPair) string {
		return p.parentField.Name + "\x00" + p.childField.Name
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && key(pairs[j]) < key(pairs[j-1]); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}
