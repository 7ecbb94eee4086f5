// Package resolver turns raw schema trees into the strongly typed field
// model. It owns constant substitution, invariant checking, and default
// materialization; emitters never re-derive any of this.
package resolver

import (
	"strings"

	"github.com/nmltools/go-nmlgen/pkg/model"
	"github.com/nmltools/go-nmlgen/pkg/registry"
	"github.com/nmltools/go-nmlgen/pkg/schema"
)

// Resolve walks the declared properties in document order and produces the
// immutable model, or the first fatal resolution error.
func Resolve(raw *schema.Schema, reg *registry.Registry) (*model.Model, error) {
	if raw == nil {
		return nil, schemaErrf("", "schema is nil")
	}
	if reg == nil {
		return nil, schemaErrf("", "registry is nil")
	}
	if raw.Type != "object" {
		return nil, schemaErrf("", "schema type must be object")
	}
	if strings.TrimSpace(raw.BlockName) == "" {
		return nil, schemaErrf("", "schema must declare x-fortran-namelist")
	}
	if len(raw.Properties) == 0 {
		return nil, schemaErrf("", "schema must declare at least one property")
	}

	seen := make(map[string]struct{}, len(raw.Properties))
	for _, name := range raw.Required {
		if _, ok := raw.Property(name); !ok {
			return nil, schemaErrf(name, "required entry does not match any property")
		}
	}

	fields := make([]model.Field, 0, len(raw.Properties))
	for _, prop := range raw.Properties {
		if _, dup := seen[prop.Name]; dup {
			return nil, schemaErrf(prop.Name, "duplicate property name")
		}
		seen[prop.Name] = struct{}{}

		field, err := resolveField(prop.Name, prop.Schema, raw.IsRequired(prop.Name), reg)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	// Layout errors are resolution-time fatal, so every declared default is
	// materialized here even though emitters recompute the grids on demand.
	for i := range fields {
		if fields[i].Default == nil {
			continue
		}
		if _, err := Materialize(&fields[i]); err != nil {
			return nil, err
		}
	}

	return model.New(raw.BlockName, raw.Title, raw.Description, fields)
}

func resolveField(name string, prop schema.Schema, inRequiredList bool, reg *registry.Registry) (model.Field, error) {
	switch prop.Type {
	case "":
		return model.Field{}, schemaErrf(name, "property must declare a type")
	case "object":
		return model.Field{}, schemaErrf(name, "object-typed properties are not supported")
	case "array":
		return resolveArrayField(name, prop, inRequiredList, reg)
	default:
		return resolveScalarField(name, prop, inRequiredList, reg)
	}
}

func resolveScalarField(name string, prop schema.Schema, inRequiredList bool, reg *registry.Registry) (model.Field, error) {
	if len(prop.Shape) > 0 {
		return model.Field{}, schemaErrf(name, "x-fortran-shape applies only to array properties")
	}
	if prop.FlexTailDims != 0 {
		return model.Field{}, schemaErrf(name, "x-fortran-flex-tail-dims applies only to array properties")
	}
	if prop.DefaultRepeat || prop.HasPad {
		return model.Field{}, schemaErrf(name, "default fill modes apply only to array properties")
	}
	if prop.Items != nil {
		return model.Field{}, schemaErrf(name, "items applies only to array properties")
	}

	field := model.Field{
		Name:        name,
		Title:       prop.Title,
		Description: prop.Description,
	}
	if err := resolveElement(&field, name, prop, reg); err != nil {
		return model.Field{}, err
	}
	if prop.HasDefault {
		field.Default = &model.DefaultSpec{
			Raw:   prop.Default,
			Order: model.ColumnMajor,
			Fill:  model.FillNone,
		}
	}
	if err := finishField(&field, name, inRequiredList, prop.HasDefault); err != nil {
		return model.Field{}, err
	}
	field.Examples = prop.Examples
	return field, nil
}

func resolveArrayField(name string, prop schema.Schema, inRequiredList bool, reg *registry.Registry) (model.Field, error) {
	if prop.Items == nil {
		return model.Field{}, schemaErrf(name, "array property must declare items")
	}
	items := *prop.Items
	switch items.Type {
	case "array":
		return model.Field{}, schemaErrf(name, "nested array properties are not supported")
	case "object":
		return model.Field{}, schemaErrf(name, "object-typed properties are not supported")
	}

	if len(prop.Enum) > 0 {
		return model.Field{}, mismatchErrf(name, "array enum must be defined on items")
	}
	if prop.Minimum != nil || prop.Maximum != nil || prop.ExclusiveMinimum || prop.ExclusiveMaximum {
		return model.Field{}, mismatchErrf(name, "array bounds must be defined on items")
	}
	if len(prop.Shape) == 0 {
		return model.Field{}, schemaErrf(name, "array property must declare x-fortran-shape")
	}

	field := model.Field{
		Name:        name,
		Title:       prop.Title,
		Description: prop.Description,
	}
	if err := resolveElement(&field, name, items, reg); err != nil {
		return model.Field{}, err
	}

	field.Dims = make([]model.Dimension, 0, len(prop.Shape))
	for _, token := range prop.Shape {
		dim, err := resolveDimension(name, token, reg)
		if err != nil {
			return model.Field{}, err
		}
		field.Dims = append(field.Dims, dim)
	}

	if prop.FlexTailDims < 0 || prop.FlexTailDims > len(field.Dims) {
		return model.Field{}, schemaErrf(name, "x-fortran-flex-tail-dims must be between 0 and the array rank")
	}
	field.FlexTailDims = prop.FlexTailDims

	if prop.DefaultRepeat && prop.HasPad {
		return model.Field{}, schemaErrf(name, "x-fortran-default-repeat and x-fortran-default-pad are mutually exclusive")
	}

	hasDefault := prop.HasDefault || items.HasDefault
	if prop.HasDefault && items.HasDefault {
		return model.Field{}, schemaErrf(name, "default declared on both the array and its items")
	}
	if hasDefault {
		spec := &model.DefaultSpec{Order: model.ColumnMajor, Fill: model.FillNone}
		if prop.DefaultOrder == schema.OrderRowMajor {
			spec.Order = model.RowMajor
		}
		switch {
		case items.HasDefault:
			if _, isList := items.Default.([]any); isList {
				return model.Field{}, schemaErrf(name, "items default must be a scalar")
			}
			spec.Raw = items.Default
			spec.Fill = model.FillRepeat
		case prop.DefaultRepeat:
			spec.Raw = prop.Default
			spec.Fill = model.FillRepeat
		case prop.HasPad:
			pad := make([]any, 0, len(prop.DefaultPad))
			for _, raw := range prop.DefaultPad {
				value, err := model.Coerce(field.Type, raw)
				if err != nil {
					return model.Field{}, mismatchErrf(name, "pad value: %v", err)
				}
				pad = append(pad, value)
			}
			if len(pad) == 0 {
				return model.Field{}, schemaErrf(name, "x-fortran-default-pad must supply at least one value")
			}
			spec.Raw = prop.Default
			spec.Fill = model.FillPad
			spec.Pad = pad
		default:
			spec.Raw = prop.Default
		}
		field.Default = spec
	}

	if field.FlexTailDims > 0 {
		if hasDefault {
			return model.Field{}, schemaErrf(name, "flexible arrays must not declare defaults")
		}
		if field.Type == model.ValueLogical {
			return model.Field{}, schemaErrf(name, "logical arrays cannot be flexible")
		}
	}
	if err := finishField(&field, name, inRequiredList, hasDefault); err != nil {
		return model.Field{}, err
	}
	field.Examples = prop.Examples
	return field, nil
}

// resolveElement applies the scalar-level keywords (type, kind, length, enum,
// bounds) shared by scalar properties and array items.
func resolveElement(field *model.Field, name string, elem schema.Schema, reg *registry.Registry) error {
	valueType, err := scalarValueType(name, elem.Type)
	if err != nil {
		return err
	}
	field.Type = valueType

	switch valueType {
	case model.ValueInteger, model.ValueReal:
		if elem.Length != nil {
			return mismatchErrf(name, "x-fortran-len applies only to string properties")
		}
		if elem.Kind != "" {
			mapped := reg.MapKind(elem.Kind)
			if reg.HasKinds() {
				allowed := reg.IsIntegerKind(mapped)
				if valueType == model.ValueReal {
					allowed = reg.IsRealKind(mapped)
				}
				if !allowed {
					return schemaErrf(name, "kind %q is not an allowed %s kind", elem.Kind, valueType)
				}
			}
			field.Kind = mapped
		}
	case model.ValueString:
		if elem.Kind != "" {
			return mismatchErrf(name, "x-fortran-kind is not supported for string properties")
		}
		if elem.Length == nil {
			return schemaErrf(name, "string property must declare x-fortran-len")
		}
		length, token, err := resolveExtent(name, *elem.Length, reg, "string length")
		if err != nil {
			return err
		}
		field.Length = length
		field.LengthToken = token
	case model.ValueLogical:
		if elem.Kind != "" || elem.Length != nil {
			return mismatchErrf(name, "kind and length are not supported for logical properties")
		}
	}

	if len(elem.Enum) > 0 {
		if valueType != model.ValueString && valueType != model.ValueInteger {
			return mismatchErrf(name, "enum is not supported for %s properties", valueType)
		}
		enum := make([]any, 0, len(elem.Enum))
		for _, raw := range elem.Enum {
			value, err := model.Coerce(valueType, raw)
			if err != nil {
				return mismatchErrf(name, "enum value: %v", err)
			}
			enum = append(enum, value)
		}
		field.Enum = enum
	}

	hasBounds := elem.Minimum != nil || elem.Maximum != nil || elem.ExclusiveMinimum || elem.ExclusiveMaximum
	if hasBounds {
		if valueType != model.ValueInteger && valueType != model.ValueReal {
			return mismatchErrf(name, "bounds are not supported for %s properties", valueType)
		}
		if elem.ExclusiveMinimum && elem.Minimum == nil {
			return schemaErrf(name, "exclusiveMinimum requires a minimum")
		}
		if elem.ExclusiveMaximum && elem.Maximum == nil {
			return schemaErrf(name, "exclusiveMaximum requires a maximum")
		}
		field.Bounds = &model.Bounds{
			Min:          elem.Minimum,
			MinExclusive: elem.ExclusiveMinimum,
			Max:          elem.Maximum,
			MaxExclusive: elem.ExclusiveMaximum,
		}
	}
	return nil
}

// finishField applies the required rule and the logical implicit default.
func finishField(field *model.Field, name string, inRequiredList, hasDeclaredDefault bool) error {
	if inRequiredList && hasDeclaredDefault {
		return conflictErrf(name, "field is declared required and carries a default")
	}
	field.Required = inRequiredList || (!hasDeclaredDefault && field.Type != model.ValueLogical)

	// Logicals have no unset representation, so they always carry a default.
	if field.Type == model.ValueLogical && field.Default == nil {
		fill := model.FillNone
		if field.IsArray() {
			fill = model.FillRepeat
		}
		field.Default = &model.DefaultSpec{Raw: false, Order: model.ColumnMajor, Fill: fill}
	}
	return nil
}

func resolveDimension(name string, token schema.DimToken, reg *registry.Registry) (model.Dimension, error) {
	extent, constName, err := resolveExtent(name, token, reg, "dimension")
	if err != nil {
		return model.Dimension{}, err
	}
	return model.Dimension{Extent: extent, Token: constName}, nil
}

func resolveExtent(name string, token schema.DimToken, reg *registry.Registry, what string) (int, string, error) {
	if token.IsName() {
		value, ok := reg.IntConstant(token.Name)
		if !ok {
			return 0, "", unresolvedErrf(name, "%s constant %q is not defined in config", what, token.Name)
		}
		if value <= 0 {
			return 0, "", schemaErrf(name, "%s constant %q must be positive", what, token.Name)
		}
		return value, token.Name, nil
	}
	if token.Literal <= 0 {
		return 0, "", schemaErrf(name, "%s must be a positive integer", what)
	}
	return token.Literal, "", nil
}

func scalarValueType(name, keyword string) (model.ValueType, error) {
	switch keyword {
	case "integer":
		return model.ValueInteger, nil
	case "number":
		return model.ValueReal, nil
	case "string":
		return model.ValueString, nil
	case "boolean":
		return model.ValueLogical, nil
	case "":
		return "", schemaErrf(name, "property must declare a type")
	default:
		return "", schemaErrf(name, "unsupported type %q", keyword)
	}
}
