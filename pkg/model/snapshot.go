package model

import "github.com/goccy/go-json"

// snapshot is the serializable projection of a model used by tooling that
// wants a machine-readable view of the resolved schema.
type snapshot struct {
	Block       string  `json:"block"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// Snapshot renders the model as indented JSON. Field order matches
// declaration order, so snapshots are stable across runs.
func (m *Model) Snapshot() ([]byte, error) {
	return json.MarshalIndent(snapshot{
		Block:       m.block,
		Title:       m.title,
		Description: m.description,
		Fields:      m.fields,
	}, "", "  ")
}
