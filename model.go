package relq

import "fmt"

// Model is a named entity type: an ordered set of fields, one identity
// field, and two derived maps describing its place in the schema reference
// graph. The maps are populated as fields are added and read-only during
// query execution.
//
//	references[targetModel][sourceFieldName] = target field (outgoing)
//	referenced[sourceModel][targetFieldName] = source fields (incoming)
//
// The incoming buckets are slices because several fields of one model may
// reference the same remote field; entries are appended, never overwritten.
type Model struct {
	Name  string
	Table string

	// New, when set, forges a typed record from a scalar bag. The result
	// must implement Node so the row parser can attach nested results.
	New func(values map[string]any) Node

	fields     map[string]*Field
	order      []string
	identity   string
	references map[string]map[string]*Field
	referenced map[string]map[string][]*Field
}

// NewModel creates a model with the given name and table.
func NewModel(name, table string) *Model {
	return &Model{
		Name:       name,
		Table:      table,
		fields:     make(map[string]*Field),
		references: make(map[string]map[string]*Field),
		referenced: make(map[string]map[string][]*Field),
	}
}

// AddField adds a field to the model. Field names are unique per model.
// A field previously owned by another model is re-parented: its entries in
// the old owner's derived maps are removed so stale graph edges never
// linger. If the field carries a References edge to an already-owned
// target field, the edge is recorded on both models.
func (m *Model) AddField(f *Field) error {
	if f == nil {
		return fmt.Errorf("relq: model %s: nil field", m.Name)
	}
	if _, ok := m.fields[f.Name]; ok {
		return fmt.Errorf("relq: model %s: duplicate field %q", m.Name, f.Name)
	}
	if f.model != nil && f.model != m {
		f.model.removeField(f)
	}

	f.model = m
	m.fields[f.Name] = f
	m.order = append(m.order, f.Name)
	if m.identity == "" {
		m.identity = f.Name
	}

	if f.References != nil {
		if err := m.setReference(f, f.References); err != nil {
			return err
		}
	}
	return nil
}

// AddFields adds fields in order, stopping at the first error.
func (m *Model) AddFields(fields ...*Field) error {
	for _, f := range fields {
		if err := m.AddField(f); err != nil {
			return err
		}
	}
	return nil
}

// SetIdentity marks the named field as the model's identity field.
func (m *Model) SetIdentity(name string) error {
	if _, ok := m.fields[name]; !ok {
		return fmt.Errorf("relq: model %s: no field %q to use as identity", m.Name, name)
	}
	m.identity = name
	return nil
}

// Identity returns the identity field, or nil if the model has no fields.
func (m *Model) Identity() *Field {
	if m.identity == "" {
		return nil
	}
	return m.fields[m.identity]
}

// Field returns the named field.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Fields returns the model's fields in declaration order.
func (m *Model) Fields() []*Field {
	out := make([]*Field, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.fields[name])
	}
	return out
}

// References returns the outgoing reference buckets keyed by target model
// name. The returned maps are the model's own; treat them as read-only.
func (m *Model) References() map[string]map[string]*Field {
	return m.references
}

// Referenced returns the incoming reference buckets keyed by source model
// name, bucketed under the local target field's name.
func (m *Model) Referenced() map[string]map[string][]*Field {
	return m.referenced
}

// SetReference establishes (or replaces) the foreign-key edge from the
// named local field to a field on another model.
func (m *Model) SetReference(fieldName string, target *Field) error {
	f, ok := m.fields[fieldName]
	if !ok {
		return newUsageError(m.Name, fieldName, "cannot reference from unknown field")
	}
	if f.References != nil {
		m.clearReference(f, f.References)
	}
	f.References = target
	return m.setReference(f, target)
}

// setReference records the edge on both sides of the graph: the source
// model's outgoing bucket keyed by the target's model name, and the target
// model's incoming bucket keyed by the source model name, appended under
// the target field's name.
func (m *Model) setReference(source, target *Field) error {
	if target.model == nil {
		return fmt.Errorf("relq: model %s: field %q references a field not yet owned by a model", m.Name, source.Name)
	}
	if target.model == m {
		return fmt.Errorf("relq: model %s: field %q may not reference its own model", m.Name, source.Name)
	}

	tm := target.model
	if m.references[tm.Name] == nil {
		m.references[tm.Name] = make(map[string]*Field)
	}
	m.references[tm.Name][source.Name] = target

	if tm.referenced[m.Name] == nil {
		tm.referenced[m.Name] = make(map[string][]*Field)
	}
	tm.referenced[m.Name][target.Name] = append(tm.referenced[m.Name][target.Name], source)
	return nil
}

// clearReference removes the edge recorded by setReference.
func (m *Model) clearReference(source, target *Field) {
	tm := target.model
	if tm == nil {
		return
	}
	if bucket := m.references[tm.Name]; bucket != nil {
		delete(bucket, source.Name)
		if len(bucket) == 0 {
			delete(m.references, tm.Name)
		}
	}
	if bucket := tm.referenced[m.Name]; bucket != nil {
		sources := bucket[target.Name]
		for i, s := range sources {
			if s == source {
				bucket[target.Name] = append(sources[:i], sources[i+1:]...)
				break
			}
		}
		if len(bucket[target.Name]) == 0 {
			delete(bucket, target.Name)
		}
		if len(bucket) == 0 {
			delete(tm.referenced, m.Name)
		}
	}
}

// removeField detaches a field during re-parenting, deleting its graph
// edges and its slot in the field map.
func (m *Model) removeField(f *Field) {
	if f.References != nil {
		m.clearReference(f, f.References)
	}
	delete(m.fields, f.Name)
	for i, name := range m.order {
		if name == f.Name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.identity == f.Name {
		m.identity = ""
		if len(m.order) > 0 {
			m.identity = m.order[0]
		}
	}
	f.model = nil
}

// Clone returns a deep copy of the model under a new name: fresh field
// values, identity, and graph edges re-recorded from the copies. Reference
// targets still point at the original remote fields. Cloning is the
// replacement for model inheritance: copy, then override entries.
func (m *Model) Clone(name string) *Model {
	c := NewModel(name, m.Table)
	c.New = m.New
	for _, orig := range m.Fields() {
		f := &Field{
			Name:       orig.Name,
			Column:     orig.Column,
			Type:       orig.Type,
			Default:    orig.Default,
			DefaultFn:  orig.DefaultFn,
			References: orig.References,
			Cast:       orig.Cast,
			Validate:   orig.Validate,
		}
		// Field names were unique in the source, so this cannot fail
		// except for a reference target inside the clone itself.
		if err := c.AddField(f); err != nil {
			f.References = nil
			_ = c.AddField(f)
		}
	}
	c.identity = m.identity
	return c
}

// resolveField validates that name refers to a field of this model.
func (m *Model) resolveField(name string) (*Field, error) {
	f, ok := m.fields[name]
	if !ok {
		return nil, newUsageError(m.Name, name, "unknown field")
	}
	return f, nil
}
