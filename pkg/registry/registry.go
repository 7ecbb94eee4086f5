package registry

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Constant is a named numeric value referenced from shape and length
// expressions. Constants resolve once at registry construction and never
// change afterwards.
type Constant struct {
	Name  string
	Value float64
	Doc   string
}

// IsInteger reports whether the constant holds an integer value.
func (c Constant) IsInteger() bool {
	return c.Value == math.Trunc(c.Value)
}

// Int returns the constant as an integer. Callers must check IsInteger first.
func (c Constant) Int() int {
	return int(c.Value)
}

// Registry holds the constant table and the kind vocabularies. It is
// immutable after construction and safe to share across concurrently
// processed schemas.
type Registry struct {
	constants map[string]Constant
	kinds     Kinds
}

// Kinds describes the target kind vocabulary: the Fortran module exporting
// the kind parameters, an alias map applied to schema-level kind names, and
// the independent real/integer allowlists.
type Kinds struct {
	Module  string            `toml:"module" validate:"required"`
	Map     map[string]string `toml:"map"`
	Real    []string          `toml:"real"`
	Integer []string          `toml:"integer"`
}

// New builds a registry from the kind configuration and constant entries.
// Overrides are applied last so ad hoc CLI definitions win over the config.
func New(kinds Kinds, constants map[string]ConstantEntry, overrides map[string]float64) (*Registry, error) {
	if strings.TrimSpace(kinds.Module) == "" {
		return nil, fmt.Errorf("registry: kinds module must be a non-empty string")
	}

	table := make(map[string]Constant, len(constants)+len(overrides))
	for name, entry := range constants {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("registry: constant names must be non-empty")
		}
		table[trimmed] = Constant{Name: trimmed, Value: entry.Value, Doc: entry.Doc}
	}
	for name, value := range overrides {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("registry: constant names must be non-empty")
		}
		doc := ""
		if existing, ok := table[trimmed]; ok {
			doc = existing.Doc
		}
		table[trimmed] = Constant{Name: trimmed, Value: value, Doc: doc}
	}

	return &Registry{constants: table, kinds: kinds}, nil
}

// Constant looks up a named constant.
func (r *Registry) Constant(name string) (Constant, bool) {
	c, ok := r.constants[name]
	return c, ok
}

// IntConstant looks up a constant that must hold an integer value.
func (r *Registry) IntConstant(name string) (int, bool) {
	c, ok := r.constants[name]
	if !ok || !c.IsInteger() {
		return 0, false
	}
	return c.Int(), true
}

// ConstantNames returns the registered constant names in sorted order so
// emitters produce deterministic output.
func (r *Registry) ConstantNames() []string {
	names := make([]string, 0, len(r.constants))
	for name := range r.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KindModule returns the Fortran module that exports the kind parameters.
func (r *Registry) KindModule() string {
	return r.kinds.Module
}

// MapKind translates a schema-level kind name into its target kind token.
// Names without an alias entry pass through unchanged.
func (r *Registry) MapKind(name string) string {
	if target, ok := r.kinds.Map[name]; ok {
		return target
	}
	return name
}

// IsRealKind reports whether the token is an allowed real kind.
func (r *Registry) IsRealKind(token string) bool {
	return containsToken(r.kinds.Real, token)
}

// IsIntegerKind reports whether the token is an allowed integer kind.
func (r *Registry) IsIntegerKind(token string) bool {
	return containsToken(r.kinds.Integer, token)
}

// RealKinds returns the allowed real kind tokens.
func (r *Registry) RealKinds() []string {
	return append([]string(nil), r.kinds.Real...)
}

// IntegerKinds returns the allowed integer kind tokens.
func (r *Registry) IntegerKinds() []string {
	return append([]string(nil), r.kinds.Integer...)
}

// HasKinds reports whether any kind allowlist was configured. An empty
// vocabulary disables allowlist checking so bare schemas keep working.
func (r *Registry) HasKinds() bool {
	return len(r.kinds.Real) > 0 || len(r.kinds.Integer) > 0
}

// IntegerKindBits returns the bit width implied by an integer kind token such
// as i4 or i8. Tokens without a recognizable byte suffix report the default
// integer width.
func IntegerKindBits(token string) int {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return 32
	}
	digits := strings.TrimLeftFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' })
	bytes, err := strconv.Atoi(digits)
	if err != nil || bytes <= 0 || bytes > 8 {
		return 32
	}
	return bytes * 8
}

func containsToken(list []string, token string) bool {
	for _, entry := range list {
		if entry == token {
			return true
		}
	}
	return false
}
