package eval

import (
	"strings"
	"testing"

	"github.com/quotetpl/quotetpl/internal/models"
)

func field(id, name string, ftype models.FieldType, formula string) models.Field {
	return models.Field{ID: id, Name: name, Type: ftype, Formula: formula}
}

func TestBuildContextBasics(t *testing.T) {
	engine := NewEngine()
	fields := []models.Field{
		field("f1", "qty", models.FieldTypeNumber, ""),
		field("f2", "client", models.FieldTypeText, ""),
		field("f3", "issued", models.FieldTypeDate, ""),
	}
	values := map[string]string{
		"f1": "1,500",
		"f2": "Acme",
		"f3": "2026-08-31",
	}
	constants := []models.Constant{
		{Name: "vat", Value: "0.17"},
		{Name: "currency", Value: "EUR"},
	}

	ctx := BuildContext(engine, fields, constants, values, ContextOptions{})

	if got := ctx["qty"]; got != 1500.0 {
		t.Errorf("expected qty 1500, got %v", got)
	}
	if got := ctx["client"]; got != "Acme" {
		t.Errorf("expected client Acme, got %v", got)
	}
	if got := ctx["issued"]; got != "31/08/2026" {
		t.Errorf("expected formatted date, got %v", got)
	}
	if got := ctx["vat"]; got != 0.17 {
		t.Errorf("expected numeric constant 0.17, got %v", got)
	}
	if got := ctx["currency"]; got != "EUR" {
		t.Errorf("expected string constant EUR, got %v", got)
	}
}

func TestBuildContextExcludesInvalidNames(t *testing.T) {
	engine := NewEngine()
	fields := []models.Field{field("f1", "2bad", models.FieldTypeNumber, "")}
	values := map[string]string{"f1": "5"}

	ctx := BuildContext(engine, fields, nil, values, ContextOptions{})
	if _, ok := ctx["2bad"]; ok {
		t.Error("names that are not identifier-safe must be excluded")
	}
}

func TestBuildContextMissingNumberDefaultsToZero(t *testing.T) {
	engine := NewEngine()
	fields := []models.Field{field("f1", "qty", models.FieldTypeNumber, "")}

	ctx := BuildContext(engine, fields, nil, map[string]string{}, ContextOptions{})
	if got := ctx["qty"]; got != 0.0 {
		t.Errorf("missing number should default to 0, got %v", got)
	}
}

func TestResolveFormulasForwardReference(t *testing.T) {
	engine := NewEngine()
	// tax references subtotal, defined both before and after it
	orders := [][]models.Field{
		{
			field("f1", "subtotal", models.FieldTypeFormula, "qty * price"),
			field("f2", "tax", models.FieldTypeFormula, "subtotal * 0.1"),
			field("f3", "qty", models.FieldTypeNumber, ""),
			field("f4", "price", models.FieldTypeNumber, ""),
		},
		{
			field("f2", "tax", models.FieldTypeFormula, "subtotal * 0.1"),
			field("f1", "subtotal", models.FieldTypeFormula, "qty * price"),
			field("f3", "qty", models.FieldTypeNumber, ""),
			field("f4", "price", models.FieldTypeNumber, ""),
		},
	}
	values := map[string]string{"f3": "3", "f4": "10"}

	for i, fields := range orders {
		ctx := BuildContext(engine, fields, nil, values, ContextOptions{})
		if got := ctx["subtotal"]; got != 30.0 {
			t.Errorf("order %d: expected subtotal 30, got %v", i, got)
		}
		if got := ctx["tax"]; got != 3.0 {
			t.Errorf("order %d: expected tax 3, got %v", i, got)
		}
	}
}

func TestResolveFormulasCycle(t *testing.T) {
	engine := NewEngine()
	fields := []models.Field{
		field("f1", "a", models.FieldTypeFormula, "b + 1"),
		field("f2", "b", models.FieldTypeFormula, "a + 1"),
	}

	ctx := BuildContext(engine, fields, nil, map[string]string{}, ContextOptions{})
	if _, ok := ctx["a"]; ok {
		t.Error("cyclic formula a should stay unresolved")
	}
	if _, ok := ctx["b"]; ok {
		t.Error("cyclic formula b should stay unresolved")
	}
}

func TestComputeFieldValueFormula(t *testing.T) {
	engine := NewEngine()
	fields := []models.Field{
		field("f1", "qty", models.FieldTypeNumber, ""),
		field("f2", "total", models.FieldTypeFormula, "qty * 2"),
	}
	values := map[string]string{"f1": "4"}

	d := ComputeFieldValue(engine, fields[1], fields, nil, values)
	if d.Err {
		t.Fatalf("unexpected error: %s", d.Message)
	}
	if d.Text != "8" {
		t.Errorf("expected 8, got %q", d.Text)
	}
}

func TestComputeFieldValueFormulaFailure(t *testing.T) {
	engine := NewEngine()
	f := field("f1", "bad", models.FieldTypeFormula, "missing_name * 2")

	d := ComputeFieldValue(engine, f, []models.Field{f}, nil, map[string]string{})
	if !d.Err {
		t.Fatal("expected a contained failure")
	}
	if d.Message == "" {
		t.Error("expected a failure message")
	}
}

func TestComputeFieldValueSkipsSelf(t *testing.T) {
	engine := NewEngine()
	// A formula must not see its own name while being recomputed
	f := field("f1", "total", models.FieldTypeFormula, "total + 1")

	d := ComputeFieldValue(engine, f, []models.Field{f}, nil, map[string]string{})
	if !d.Err {
		t.Error("self-referential formula should fail, not feed on itself")
	}
}

func TestComputeFieldValueDivisionByZero(t *testing.T) {
	engine := NewEngine()
	f := field("f1", "ratio", models.FieldTypeFormula, "1 / 0")

	d := ComputeFieldValue(engine, f, []models.Field{f}, nil, map[string]string{})
	if !d.Err {
		t.Error("non-finite result should be a contained failure")
	}
}

func TestComputeFieldValuePlainTypes(t *testing.T) {
	engine := NewEngine()

	d := ComputeFieldValue(engine, field("f1", "client", models.FieldTypeText, ""), nil, nil, map[string]string{"f1": "Acme"})
	if d.Text != "Acme" {
		t.Errorf("text field: expected Acme, got %q", d.Text)
	}

	d = ComputeFieldValue(engine, field("f2", "qty", models.FieldTypeNumber, ""), nil, nil, map[string]string{"f2": "1,234.5"})
	if d.Text != "1234.5" {
		t.Errorf("number field: expected 1234.5, got %q", d.Text)
	}

	d = ComputeFieldValue(engine, field("f3", "issued", models.FieldTypeDate, ""), nil, nil, map[string]string{"f3": "2026-01-02"})
	if d.Text != "02/01/2026" {
		t.Errorf("date field: expected 02/01/2026, got %q", d.Text)
	}

	d = ComputeFieldValue(engine, field("f4", "note", models.FieldTypeDate, ""), nil, nil, map[string]string{"f4": "sometime soon"})
	if d.Text != "sometime soon" {
		t.Errorf("non-date input should pass through, got %q", d.Text)
	}
}

func TestParseMaybeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 42 ", 42, true},
		{"1,500.25", 1500.25, true},
		{"-3.5", -3.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMaybeNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseMaybeNumber(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1500.0); got != "1500" {
		t.Errorf("expected 1500, got %q", got)
	}
	if got := FormatNumber(0.1 + 0.2); !strings.HasPrefix(got, "0.30000000000000004") {
		// strconv renders the exact shortest representation
		t.Errorf("unexpected rendering %q", got)
	}
}
