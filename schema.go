package relq

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/zoobzio/dbml"
)

// Schema is a caller-owned registry of models. It is built once at
// startup and exposed read-only to the query engine; concurrent reads
// during execution require no locking.
type Schema struct {
	models map[string]*Model
	order  []string
}

// NewSchema creates an empty schema registry.
func NewSchema() *Schema {
	return &Schema{models: make(map[string]*Model)}
}

// AddModel registers a model. Model names are unique per schema.
func (s *Schema) AddModel(m *Model) error {
	if m == nil {
		return fmt.Errorf("relq: schema: nil model")
	}
	if _, ok := s.models[m.Name]; ok {
		return fmt.Errorf("relq: schema: duplicate model %q", m.Name)
	}
	if m.Table == "" {
		m.Table = Tableize(m.Name)
	}
	s.models[m.Name] = m
	s.order = append(s.order, m.Name)
	return nil
}

// Model returns the named model.
func (s *Schema) Model(name string) (*Model, bool) {
	m, ok := s.models[name]
	return m, ok
}

// Models returns the registered models in registration order.
func (s *Schema) Models() []*Model {
	out := make([]*Model, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.models[name])
	}
	return out
}

// Ref declares a foreign-key edge between two registered models using
// dotted "Model.field" endpoints.
type Ref struct {
	From string
	To   string
}

// AddRef resolves and records a foreign-key edge on both models.
func (s *Schema) AddRef(r Ref) error {
	fromModel, fromField, err := s.splitRef(r.From)
	if err != nil {
		return err
	}
	toModel, toField, err := s.splitRef(r.To)
	if err != nil {
		return err
	}
	target, ok := toModel.Field(toField)
	if !ok {
		return newUsageError(toModel.Name, toField, "unknown reference target")
	}
	return fromModel.SetReference(fromField, target)
}

func (s *Schema) splitRef(endpoint string) (*Model, string, error) {
	parts := strings.SplitN(endpoint, ".", 2)
	if len(parts) != 2 {
		return nil, "", fmt.Errorf("relq: schema: ref endpoint %q must be Model.field", endpoint)
	}
	m, ok := s.models[parts[0]]
	if !ok {
		return nil, "", fmt.Errorf("relq: schema: ref endpoint %q names unknown model", endpoint)
	}
	return m, parts[1], nil
}

// Tableize derives a storage table name from a model name:
// "OrderItem" becomes "order_items".
func Tableize(modelName string) string {
	return inflect.Pluralize(inflect.Underscore(modelName))
}

// modelize derives a model name from a table name:
// "order_items" becomes "OrderItem".
func modelize(tableName string) string {
	return inflect.Camelize(inflect.Singularize(tableName))
}

// SchemaFromDBML builds a schema from a DBML project: one model per
// table, fields named after columns, identity defaulting to the "id"
// column when present. Foreign-key edges are declared explicitly through
// refs since relq models reference fields, not columns.
func SchemaFromDBML(project *dbml.Project, refs ...Ref) (*Schema, error) {
	if project == nil {
		return nil, fmt.Errorf("relq: schema: project cannot be nil")
	}

	s := NewSchema()
	for _, table := range project.Tables {
		m := NewModel(modelize(table.Name), table.Name)
		for _, col := range table.Columns {
			if err := m.AddField(NewField(col.Name, col.Type)); err != nil {
				return nil, err
			}
		}
		if _, ok := m.Field("id"); ok {
			if err := m.SetIdentity("id"); err != nil {
				return nil, err
			}
		}
		if err := s.AddModel(m); err != nil {
			return nil, err
		}
	}

	for _, r := range refs {
		if err := s.AddRef(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}
