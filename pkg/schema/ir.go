package schema

// DimToken is one dimension of a declared array shape, or a string length. It
// is either a literal extent or the name of a registry constant that the
// resolver substitutes later.
type DimToken struct {
	Literal int
	Name    string
}

// IsName reports whether the token references a named constant.
func (t DimToken) IsName() bool {
	return t.Name != ""
}

// Property pairs a property name with its schema, preserving the position the
// property was declared at. Declaration order drives generated field order and
// validation check order, so the raw tree never stores properties in a map.
type Property struct {
	Name   string
	Schema Schema
}

// OrderToken values accepted by x-fortran-default-order.
const (
	OrderColumnMajor = "F"
	OrderRowMajor    = "C"
)

// Schema is the raw, loosely typed schema tree produced by Parse. The
// resolver consumes it together with the constant registry and turns it into
// the strongly typed field model.
type Schema struct {
	Title       string
	Description string
	Type        string

	// BlockName carries x-fortran-namelist; only meaningful on the root.
	BlockName string

	Required   []string
	Properties []Property

	Default    any
	HasDefault bool
	Enum       []any
	Examples   []any

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool

	Items *Schema

	// Fortran extension keywords.
	Kind          string
	Length        *DimToken
	Shape         []DimToken
	FlexTailDims  int
	DefaultOrder  string
	DefaultRepeat bool
	DefaultPad    []any
	HasPad        bool
}

// Property returns the named property schema and whether it exists.
func (s *Schema) Property(name string) (Schema, bool) {
	for _, prop := range s.Properties {
		if prop.Name == name {
			return prop.Schema, true
		}
	}
	return Schema{}, false
}

// IsRequired reports whether name appears in the schema's required list.
func (s *Schema) IsRequired(name string) bool {
	for _, entry := range s.Required {
		if entry == name {
			return true
		}
	}
	return false
}
