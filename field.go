package relq

import "github.com/google/uuid"

// CastFunc converts a raw value before it is written. The owning record is
// passed explicitly so casts can depend on sibling values.
type CastFunc func(value any, record map[string]any) (any, error)

// ValidateFunc checks a value before it is written.
type ValidateFunc func(value any, record map[string]any) error

// DefaultFunc produces a default value for a field left unset on insert.
type DefaultFunc func() any

// Field is a named, typed schema attribute owned by exactly one model.
// A non-nil References pointer establishes a foreign-key edge to a field
// on a different model; the edge is recorded in both models' derived
// reference maps when the field is added to its owner.
type Field struct {
	Name       string
	Column     string // storage column; defaults to Name
	Type       string // declared type tag, opaque to the compiler
	Default    any
	DefaultFn  DefaultFunc
	References *Field
	Cast       CastFunc
	Validate   ValidateFunc

	model *Model
}

// NewField creates a field with the given name and type tag.
// The storage column defaults to the field name.
func NewField(name, typ string) *Field {
	return &Field{Name: name, Column: name, Type: typ}
}

// Model returns the model currently owning the field, or nil.
func (f *Field) Model() *Model {
	return f.model
}

// column returns the storage column, falling back to the field name.
func (f *Field) column() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// UUIDDefault is a DefaultFunc generating a random UUID string, for use as
// an identity default on insert.
func UUIDDefault() any {
	return uuid.NewString()
}
