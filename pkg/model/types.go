package model

// ValueType is the closed set of scalar types a field can carry.
type ValueType string

const (
	ValueInteger ValueType = "integer"
	ValueReal    ValueType = "real"
	ValueString  ValueType = "string"
	ValueLogical ValueType = "logical"
)

// OrderMode selects how a declared default list maps onto array cells.
// ColumnMajor means the first declared dimension varies fastest, matching the
// target's native array memory order; RowMajor means the last dimension
// varies fastest, matching C-style literals.
type OrderMode string

const (
	ColumnMajor OrderMode = "column-major"
	RowMajor    OrderMode = "row-major"
)

// FillMode describes how a partial default list reaches the full cell count.
type FillMode string

const (
	FillNone   FillMode = "none"
	FillRepeat FillMode = "repeat"
	FillPad    FillMode = "pad"
)

// Dimension is one resolved array extent. Token preserves the constant name
// the schema declared so emitters can reference the symbol instead of the
// number.
type Dimension struct {
	Extent int    `json:"extent"`
	Token  string `json:"token,omitempty"`
}

// DefaultSpec carries a field's declared default before materialization.
type DefaultSpec struct {
	Raw   any       `json:"raw"`
	Order OrderMode `json:"order"`
	Fill  FillMode  `json:"fill"`
	Pad   []any     `json:"pad,omitempty"`
}

// Bounds are numeric range constraints, applicable to Integer and Real
// fields only. For arrays they apply per element.
type Bounds struct {
	Min          *float64 `json:"min,omitempty"`
	MinExclusive bool     `json:"minExclusive,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	MaxExclusive bool     `json:"maxExclusive,omitempty"`
}

// Field is the central entity of the resolved model.
type Field struct {
	Name        string    `json:"name"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Type        ValueType `json:"type"`

	// Kind is the alias-mapped target kind token for Integer/Real fields.
	// Empty means the target's plain default kind.
	Kind string `json:"kind,omitempty"`

	// Length and LengthToken describe the declared length of String fields.
	Length      int    `json:"length,omitempty"`
	LengthToken string `json:"lengthToken,omitempty"`

	// Dims is empty for scalars. FlexTailDims counts trailing dimensions
	// whose effective extent may be smaller than declared.
	Dims         []Dimension `json:"dims,omitempty"`
	FlexTailDims int         `json:"flexTailDims,omitempty"`

	Required bool         `json:"required"`
	Default  *DefaultSpec `json:"default,omitempty"`
	Enum     []any        `json:"enum,omitempty"`
	Bounds   *Bounds      `json:"bounds,omitempty"`
	Examples []any        `json:"examples,omitempty"`
}

// IsArray reports whether the field has array cardinality.
func (f *Field) IsArray() bool {
	return len(f.Dims) > 0
}

// Rank returns the number of declared dimensions (zero for scalars).
func (f *Field) Rank() int {
	return len(f.Dims)
}

// Shape returns the resolved extents in declaration order.
func (f *Field) Shape() []int {
	if len(f.Dims) == 0 {
		return nil
	}
	shape := make([]int, len(f.Dims))
	for i, dim := range f.Dims {
		shape[i] = dim.Extent
	}
	return shape
}

// TotalCells returns the full cell count of the declared shape, or 1 for
// scalars.
func (f *Field) TotalCells() int {
	total := 1
	for _, dim := range f.Dims {
		total *= dim.Extent
	}
	return total
}

// MaterializedDefault is the dense, shape-complete default grid computed once
// at resolution time. Values are stored in column-major order (first declared
// dimension fastest); emitters re-apply their own literal order when
// rendering.
type MaterializedDefault struct {
	Shape  []int `json:"shape,omitempty"`
	Values []any `json:"values"`
}

// IsScalar reports whether the default belongs to a scalar field.
func (d *MaterializedDefault) IsScalar() bool {
	return len(d.Shape) == 0
}

// Scalar returns the single value of a scalar default.
func (d *MaterializedDefault) Scalar() any {
	if len(d.Values) == 0 {
		return nil
	}
	return d.Values[0]
}
