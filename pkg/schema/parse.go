package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedSchemaKeys = map[string]struct{}{
	"$schema":          {},
	"$id":              {},
	"type":             {},
	"properties":       {},
	"required":         {},
	"items":            {},
	"enum":             {},
	"title":            {},
	"description":      {},
	"default":          {},
	"examples":         {},
	"minimum":          {},
	"maximum":          {},
	"exclusiveMinimum": {},
	"exclusiveMaximum": {},
}

// Parse decodes a YAML or JSON schema document into the raw ordered tree.
// Property declaration order is preserved; unknown keywords outside the x-
// extension namespace are fatal.
func Parse(doc Document) (*Schema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc.Raw(), &root); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", doc.Location(), err)
	}
	node := resolveAlias(&root)
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) != 1 {
			return nil, fmt.Errorf("schema: %s must contain a single document", doc.Location())
		}
		node = resolveAlias(node.Content[0])
	}

	parsed, err := parseNode(node, "#")
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseNode(node *yaml.Node, path string) (Schema, error) {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return Schema{}, fmt.Errorf("schema: schema must be a mapping at %s", path)
	}

	var out Schema
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		valueNode := resolveAlias(node.Content[i+1])
		key := keyNode.Value

		if isVendorExtension(key) {
			if err := parseExtension(&out, key, valueNode, path); err != nil {
				return Schema{}, err
			}
			continue
		}
		if _, ok := supportedSchemaKeys[key]; !ok {
			return Schema{}, fmt.Errorf("schema: unsupported keyword %q at %s", key, path)
		}

		var err error
		switch key {
		case "$schema", "$id":
			// Dialect markers carry no model information.
		case "type":
			err = decodeString(valueNode, &out.Type, key, path)
		case "title":
			err = decodeString(valueNode, &out.Title, key, path)
		case "description":
			err = decodeString(valueNode, &out.Description, key, path)
		case "default":
			out.Default, err = decodeAny(valueNode, key, path)
			out.HasDefault = err == nil
		case "enum":
			out.Enum, err = decodeList(valueNode, key, path)
		case "examples":
			out.Examples, err = decodeList(valueNode, key, path)
		case "required":
			err = parseRequired(&out, valueNode, path)
		case "properties":
			err = parseProperties(&out, valueNode, path)
		case "items":
			var items Schema
			items, err = parseNode(valueNode, joinPath(path, "items"))
			if err == nil {
				out.Items = &items
			}
		case "minimum":
			out.Minimum, err = decodeFloat(valueNode, key, path)
		case "maximum":
			out.Maximum, err = decodeFloat(valueNode, key, path)
		case "exclusiveMinimum":
			err = parseExclusive(valueNode, &out.Minimum, &out.ExclusiveMinimum, key, path)
		case "exclusiveMaximum":
			err = parseExclusive(valueNode, &out.Maximum, &out.ExclusiveMaximum, key, path)
		}
		if err != nil {
			return Schema{}, err
		}
	}
	return out, nil
}

func parseRequired(out *Schema, node *yaml.Node, path string) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("schema: required must be a list at %s", path)
	}
	for idx, entry := range node.Content {
		entry = resolveAlias(entry)
		if entry.Kind != yaml.ScalarNode || strings.TrimSpace(entry.Value) == "" {
			return fmt.Errorf("schema: required[%d] must be a non-empty string at %s", idx, path)
		}
		out.Required = append(out.Required, entry.Value)
	}
	return nil
}

func parseProperties(out *Schema, node *yaml.Node, path string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("schema: properties must be a mapping at %s", path)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		name := keyNode.Value
		childPath := joinPath(path, "properties", name)
		child, err := parseNode(node.Content[i+1], childPath)
		if err != nil {
			return err
		}
		out.Properties = append(out.Properties, Property{Name: name, Schema: child})
	}
	return nil
}

func parseExclusive(node *yaml.Node, bound **float64, flag *bool, key, path string) error {
	var boolean bool
	if err := node.Decode(&boolean); err == nil {
		*flag = boolean
		return nil
	}
	value, err := decodeFloat(node, key, path)
	if err != nil {
		return err
	}
	if *bound != nil {
		return fmt.Errorf("schema: %s conflicts with an inclusive bound at %s", key, path)
	}
	*bound = value
	*flag = true
	return nil
}

func parseExtension(out *Schema, key string, node *yaml.Node, path string) error {
	switch key {
	case "x-fortran-namelist":
		return decodeString(node, &out.BlockName, key, path)
	case "x-fortran-kind":
		return decodeString(node, &out.Kind, key, path)
	case "x-fortran-len":
		token, err := parseDimToken(node, key, path)
		if err != nil {
			return err
		}
		out.Length = &token
		return nil
	case "x-fortran-shape":
		return parseShape(out, node, key, path)
	case "x-fortran-flex-tail-dims":
		if err := node.Decode(&out.FlexTailDims); err != nil {
			return fmt.Errorf("schema: %s must be an integer at %s", key, path)
		}
		return nil
	case "x-fortran-default-order":
		if err := decodeString(node, &out.DefaultOrder, key, path); err != nil {
			return err
		}
		switch out.DefaultOrder {
		case OrderColumnMajor, OrderRowMajor:
			return nil
		default:
			return fmt.Errorf("schema: %s must be %q or %q at %s", key, OrderColumnMajor, OrderRowMajor, path)
		}
	case "x-fortran-default-repeat":
		if err := node.Decode(&out.DefaultRepeat); err != nil {
			return fmt.Errorf("schema: %s must be a boolean at %s", key, path)
		}
		return nil
	case "x-fortran-default-pad":
		values, err := decodeScalarOrList(node, key, path)
		if err != nil {
			return err
		}
		out.DefaultPad = values
		out.HasPad = true
		return nil
	default:
		// Unknown vendor extensions pass through untouched so downstream
		// tooling can carry its own annotations.
		return nil
	}
}

func parseShape(out *Schema, node *yaml.Node, key, path string) error {
	if node.Kind == yaml.SequenceNode {
		for _, entry := range node.Content {
			token, err := parseDimToken(resolveAlias(entry), key, path)
			if err != nil {
				return err
			}
			out.Shape = append(out.Shape, token)
		}
		return nil
	}
	token, err := parseDimToken(node, key, path)
	if err != nil {
		return err
	}
	out.Shape = []DimToken{token}
	return nil
}

func parseDimToken(node *yaml.Node, key, path string) (DimToken, error) {
	if node.Kind != yaml.ScalarNode {
		return DimToken{}, fmt.Errorf("schema: %s entries must be integers or constant names at %s", key, path)
	}
	if node.Tag == "!!int" {
		var literal int
		if err := node.Decode(&literal); err != nil {
			return DimToken{}, fmt.Errorf("schema: %s: %v at %s", key, err, path)
		}
		return DimToken{Literal: literal}, nil
	}
	name := strings.TrimSpace(node.Value)
	if name == "" {
		return DimToken{}, fmt.Errorf("schema: %s entries must be integers or constant names at %s", key, path)
	}
	return DimToken{Name: name}, nil
}

func decodeString(node *yaml.Node, target *string, key, path string) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("schema: %s must be a string at %s", key, path)
	}
	var value string
	if err := node.Decode(&value); err != nil {
		return fmt.Errorf("schema: %s must be a string at %s", key, path)
	}
	*target = strings.TrimSpace(value)
	return nil
}

func decodeFloat(node *yaml.Node, key, path string) (*float64, error) {
	var value float64
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("schema: %s must be a number at %s", key, path)
	}
	return &value, nil
}

func decodeAny(node *yaml.Node, key, path string) (any, error) {
	var value any
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("schema: %s: invalid value at %s", key, path)
	}
	return value, nil
}

func decodeList(node *yaml.Node, key, path string) ([]any, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("schema: %s must be a list at %s", key, path)
	}
	var values []any
	if err := node.Decode(&values); err != nil {
		return nil, fmt.Errorf("schema: %s: invalid list at %s", key, path)
	}
	return values, nil
}

func decodeScalarOrList(node *yaml.Node, key, path string) ([]any, error) {
	if node.Kind == yaml.SequenceNode {
		return decodeList(node, key, path)
	}
	value, err := decodeAny(node, key, path)
	if err != nil {
		return nil, err
	}
	return []any{value}, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isVendorExtension(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "x-")
}

func joinPath(path string, segments ...string) string {
	if path == "" {
		path = "#"
	}
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		path = path + "/" + segment
	}
	return path
}
