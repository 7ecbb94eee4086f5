package model

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestNewRejectsDuplicateFields(t *testing.T) {
	fields := []Field{
		{Name: "count", Type: ValueInteger},
		{Name: "count", Type: ValueReal},
	}
	if _, err := New("run", "", "", fields); err == nil {
		t.Fatal("expected duplicate field error")
	}
}

func TestNewRequiresBlock(t *testing.T) {
	if _, err := New("", "", "", nil); err == nil {
		t.Fatal("expected error for empty block name")
	}
}

func TestModelAccessors(t *testing.T) {
	fields := []Field{
		{Name: "count", Type: ValueInteger, Required: true},
		{Name: "ratio", Type: ValueReal},
	}
	m, err := New("run", "Run settings", "Controls the run.", fields)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if m.Block() != "run" || m.Len() != 2 {
		t.Errorf("Block/Len = %q/%d", m.Block(), m.Len())
	}
	if _, ok := m.Field("ratio"); !ok {
		t.Error("Field(ratio) not found")
	}
	if _, ok := m.Field("missing"); ok {
		t.Error("Field(missing) found")
	}
	if got := m.RequiredFields(); len(got) != 1 || got[0].Name != "count" {
		t.Errorf("RequiredFields = %+v", got)
	}

	// The fields slice is a copy; mutating it must not touch the model.
	clone := m.Fields()
	clone[0].Name = "mutated"
	if m.FieldAt(0).Name != "count" {
		t.Error("model fields were mutated through the copy")
	}
}

func TestSnapshot(t *testing.T) {
	fields := []Field{
		{Name: "count", Type: ValueInteger, Required: true},
		{Name: "ratio", Type: ValueReal},
	}
	m, err := New("run", "Run settings", "", fields)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	data, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	var got struct {
		Block  string `json:"block"`
		Title  string `json:"title"`
		Fields []struct {
			Name     string `json:"name"`
			Required bool   `json:"required"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Block != "run" || got.Title != "Run settings" {
		t.Errorf("block/title = %q/%q", got.Block, got.Title)
	}
	if len(got.Fields) != 2 || got.Fields[0].Name != "count" || !got.Fields[0].Required {
		t.Errorf("fields = %+v", got.Fields)
	}
	if got.Fields[1].Name != "ratio" {
		t.Errorf("field order lost: %+v", got.Fields)
	}
}

func TestFieldShapeHelpers(t *testing.T) {
	field := Field{
		Name: "grid",
		Type: ValueInteger,
		Dims: []Dimension{{Extent: 2}, {Extent: 3, Token: "max_cols"}},
	}
	if !field.IsArray() || field.Rank() != 2 {
		t.Errorf("IsArray/Rank = %v/%d", field.IsArray(), field.Rank())
	}
	if field.TotalCells() != 6 {
		t.Errorf("TotalCells = %d, want 6", field.TotalCells())
	}
	shape := field.Shape()
	if len(shape) != 2 || shape[0] != 2 || shape[1] != 3 {
		t.Errorf("Shape = %v", shape)
	}

	scalar := Field{Name: "count", Type: ValueInteger}
	if scalar.IsArray() || scalar.TotalCells() != 1 {
		t.Errorf("scalar helpers wrong: %v/%d", scalar.IsArray(), scalar.TotalCells())
	}
}

func TestCoerce(t *testing.T) {
	if v, err := Coerce(ValueInteger, 7.0); err != nil || v.(int64) != 7 {
		t.Errorf("Coerce integer from integral float = %v, %v", v, err)
	}
	if _, err := Coerce(ValueInteger, 7.5); err == nil {
		t.Error("Coerce accepted a fractional integer")
	}
	if v, err := Coerce(ValueReal, 3); err != nil || v.(float64) != 3.0 {
		t.Errorf("Coerce real from int = %v, %v", v, err)
	}
	if v, err := Coerce(ValueString, "DDS"); err != nil || v.(string) != "DDS" {
		t.Errorf("Coerce string = %v, %v", v, err)
	}
	if _, err := Coerce(ValueString, 3); err == nil {
		t.Error("Coerce accepted a number for a string")
	}
	if v, err := Coerce(ValueLogical, true); err != nil || v.(bool) != true {
		t.Errorf("Coerce logical = %v, %v", v, err)
	}
	if _, err := Coerce(ValueLogical, "yes"); err == nil {
		t.Error("Coerce accepted a string for a logical")
	}
}
