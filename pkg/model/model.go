package model

import "fmt"

// Model is the fully resolved, invariant-checked representation of one
// schema. It is built once, immutable thereafter, and shared read-only by
// every emitter. Mutation happens only on record instances, never on the
// model describing their shape.
type Model struct {
	block       string
	title       string
	description string
	fields      []Field
	index       map[string]int
}

// New constructs a model from resolved fields. Field names must already be
// unique; the resolver guarantees that before calling.
func New(block, title, description string, fields []Field) (*Model, error) {
	if block == "" {
		return nil, fmt.Errorf("model: block name is required")
	}
	index := make(map[string]int, len(fields))
	for i, field := range fields {
		if _, exists := index[field.Name]; exists {
			return nil, fmt.Errorf("model: duplicate field %q", field.Name)
		}
		index[field.Name] = i
	}
	clone := append([]Field(nil), fields...)
	return &Model{
		block:       block,
		title:       title,
		description: description,
		fields:      clone,
		index:       index,
	}, nil
}

// Block returns the namelist block name.
func (m *Model) Block() string {
	return m.block
}

// Title returns the schema title.
func (m *Model) Title() string {
	return m.title
}

// Description returns the schema description.
func (m *Model) Description() string {
	return m.description
}

// Len returns the number of fields.
func (m *Model) Len() int {
	return len(m.fields)
}

// Fields returns the fields in declaration order. The slice is a copy so the
// model stays immutable.
func (m *Model) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

// FieldAt returns the field at position i in declaration order.
func (m *Model) FieldAt(i int) *Field {
	return &m.fields[i]
}

// Field looks up a field by name.
func (m *Model) Field(name string) (*Field, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return &m.fields[i], true
}

// FieldIndex returns the declaration position of a field.
func (m *Model) FieldIndex(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// RequiredFields returns the required fields in declaration order.
func (m *Model) RequiredFields() []Field {
	var out []Field
	for _, field := range m.fields {
		if field.Required {
			out = append(out, field)
		}
	}
	return out
}
