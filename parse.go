package relq

import (
	"fmt"
)

// Node is one reconstructed record in a result graph. Typed models
// satisfy it through their own constructor; untyped results use Record
// or Instance.
type Node interface {
	// Get returns a field or child value by its output key.
	Get(key string) any
	// Set stores a field or child value under an output key.
	Set(key string, value any)
}

// Record is the untyped node: a plain field bag. Queries with forging
// disabled reconstruct into Records.
type Record map[string]any

// Get returns a field value.
func (r Record) Get(key string) any { return r[key] }

// Set stores a field value.
func (r Record) Set(key string, value any) { r[key] = value }

// Instance is the default forged node for models that declare no
// constructor: a record bag tagged with its model.
type Instance struct {
	Model *Model
	Data  Record
}

// Get returns a field value.
func (n *Instance) Get(key string) any { return n.Data[key] }

// Set stores a field value.
func (n *Instance) Set(key string, value any) { n.Data[key] = value }

// parser rebuilds the object graph from flat alias-qualified rows. Each
// query in the tree keeps its own memo keyed by identity value, so a row
// that repeats an identity reuses the existing node instead of creating a
// duplicate. The memo also terminates recursion on cyclic join chains:
// re-encountering an alias+identity pair returns the cached node rather
// than re-descending.
type parser struct {
	memo map[*Query]map[string]Node
	// lastChild tracks, per child query and parent identity, the identity
	// of the most recently attached child. Duplicate join rows repeat the
	// same child as the trailing element and must not attach twice.
	lastChild map[*Query]map[string]string
	out       []Node
}

// parseRows reconstructs the root query's ordered output list from the
// flat rows of its compiled statement. Row keys are "alias.field".
func parseRows(root *Query, rows []map[string]any) []Node {
	p := &parser{
		memo:      make(map[*Query]map[string]Node),
		lastChild: make(map[*Query]map[string]string),
		out:       []Node{},
	}
	for _, row := range rows {
		p.parseRow(root, row)
	}
	return p.out
}

// parseRow processes one flat row for one query in the tree, returning
// the node for that query's alias plus its identity key, or nil when the
// alias carries no data in this row (an unmatched left join).
func (p *parser) parseRow(q *Query, row map[string]any) (Node, string) {
	bag := make(map[string]any)
	allNull := true
	for _, name := range selectFields(q) {
		v := row[q.alias+"."+name]
		bag[name] = v
		if v != nil {
			allNull = false
		}
	}
	if allNull {
		return nil, ""
	}

	identity := bag[q.model.identity]
	if identity == nil {
		return nil, ""
	}
	key := fmt.Sprint(identity)

	nodes := p.memo[q]
	if nodes == nil {
		nodes = make(map[string]Node)
		p.memo[q] = nodes
	}
	node, seen := nodes[key]
	if !seen {
		node = materialize(q, bag)
		nodes[key] = node
		if !q.isChild() {
			p.out = append(p.out, node)
		}
	}

	for _, child := range q.children {
		childNode, childKey := p.parseRow(child, row)
		if childNode == nil {
			continue
		}
		p.attach(node, key, child, childNode, childKey)
	}
	return node, key
}

// materialize builds the node for one scalar bag: the model's own
// constructor when forging, a generic Instance when the model has none,
// or a plain Record when forging is disabled.
func materialize(q *Query, bag map[string]any) Node {
	if !q.forge {
		return Record(bag)
	}
	if q.model.New != nil {
		return q.model.New(bag)
	}
	return &Instance{Model: q.model, Data: Record(bag)}
}

// attach stores a child node under its output key on the parent:
// first child sets a single value, a second upgrades it to a two-element
// list, later children append. A child whose identity matches the most
// recently attached one is a duplicate join row and is skipped.
func (p *parser) attach(parent Node, parentKey string, child *Query, childNode Node, childKey string) {
	seen := p.lastChild[child]
	if seen == nil {
		seen = make(map[string]string)
		p.lastChild[child] = seen
	}
	if seen[parentKey] == childKey {
		return
	}
	seen[parentKey] = childKey

	outputKey := child.outputKey()
	switch current := parent.Get(outputKey).(type) {
	case nil:
		parent.Set(outputKey, childNode)
	case []Node:
		parent.Set(outputKey, append(current, childNode))
	case Node:
		parent.Set(outputKey, []Node{current, childNode})
	default:
		// The key collides with a scalar field; the child wins, matching
		// how a single nested value is stored.
		parent.Set(outputKey, childNode)
	}
}
