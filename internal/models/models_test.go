package models

import (
	"strings"
	"testing"
)

func TestToSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Client Name", "client_name"},
		{"  VAT %  ", "vat"},
		{"total__due", "total_due"},
		{"already_safe", "already_safe"},
		{"Price (EUR)", "price_eur"},
	}
	for _, tt := range tests {
		if got := ToSafeName(tt.in); got != tt.want {
			t.Errorf("ToSafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToSafeNameFallback(t *testing.T) {
	got := ToSafeName("!!!")
	if !strings.HasPrefix(got, "field_") {
		t.Errorf("expected generated fallback name, got %q", got)
	}
	if !IsValidIdentifier(got) {
		t.Errorf("fallback name must be identifier-safe, got %q", got)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"a", "total", "_x", "a_1"}
	invalid := []string{"", "2bad", "Total", "a-b", "a b"}
	for _, name := range valid {
		if !IsValidIdentifier(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}
	for _, name := range invalid {
		if IsValidIdentifier(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestSanitizeField(t *testing.T) {
	f := SanitizeField(Field{Name: "Client Name", Type: "bogus", Formula: "1+1"})
	if f.ID == "" {
		t.Error("expected a generated id")
	}
	if f.Name != "client_name" {
		t.Errorf("expected normalized name, got %q", f.Name)
	}
	if f.Type != FieldTypeText {
		t.Errorf("unknown type should fall back to text, got %q", f.Type)
	}
	if f.Formula != "" {
		t.Error("non-formula fields must not carry a formula")
	}

	f = SanitizeField(Field{ID: "x", Name: "total", Type: FieldTypeFormula, Formula: "a+b"})
	if f.Formula != "a+b" {
		t.Errorf("formula fields keep their formula, got %q", f.Formula)
	}
}

func TestSanitizeConstants(t *testing.T) {
	got := SanitizeConstants([]Constant{
		{Name: "VAT Rate", Value: "0.17"},
		{Name: "empty", Value: "   "},
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 constant after sanitizing, got %d", len(got))
	}
	if got[0].Name != "vat_rate" {
		t.Errorf("expected normalized name, got %q", got[0].Name)
	}
}

func TestTemplateSanitize(t *testing.T) {
	tmpl := &Template{}
	tmpl.Sanitize()
	if tmpl.ID == "" || tmpl.Name == "" {
		t.Error("expected generated id and default name")
	}
	if tmpl.ValuesByFieldID == nil {
		t.Error("expected values map to be initialized")
	}
	if tmpl.TextDirection != DirectionAuto {
		t.Errorf("expected auto direction, got %q", tmpl.TextDirection)
	}
}

func TestNormalizePDFFileName(t *testing.T) {
	tests := []struct {
		name     string
		fallback string
		want     string
	}{
		{"quote", "x", "quote.pdf"},
		{"", "My Quote.docx", "My_Quote.pdf"},
		{"weird/name?.pdf", "x", "weird_name.pdf"},
		{"", "", "template.pdf"},
	}
	for _, tt := range tests {
		if got := NormalizePDFFileName(tt.name, tt.fallback); got != tt.want {
			t.Errorf("NormalizePDFFileName(%q, %q) = %q, want %q", tt.name, tt.fallback, got, tt.want)
		}
	}
}

func TestParseExportFileTolerant(t *testing.T) {
	// Malformed keys default instead of failing the whole file
	data := []byte(`{
		"templateName": "Quote",
		"templateHtml": "<p>hi</p>",
		"fields": [{"id":"f1","name":"Client Name","type":"text"}, 42],
		"valuesByFieldId": "not-an-object",
		"constants": [{"name":"VAT","value":"0.17"}],
		"schemaVersion": "not-a-number"
	}`)

	ef, err := ParseExportFile(data)
	if err != nil {
		t.Fatalf("tolerant parse should not fail: %v", err)
	}
	if ef.TemplateName != "Quote" {
		t.Errorf("expected template name Quote, got %q", ef.TemplateName)
	}
	if len(ef.Fields) != 1 || ef.Fields[0].Name != "client_name" {
		t.Errorf("expected one sanitized field, got %+v", ef.Fields)
	}
	if ef.ValuesByFieldID == nil || len(ef.ValuesByFieldID) != 0 {
		t.Errorf("malformed values should default to empty map, got %v", ef.ValuesByFieldID)
	}
	if len(ef.Constants) != 1 || ef.Constants[0].Name != "vat" {
		t.Errorf("expected sanitized constant, got %+v", ef.Constants)
	}
	if ef.SchemaVersion != SchemaVersion {
		t.Errorf("malformed schema version should default, got %d", ef.SchemaVersion)
	}
}

func TestParseExportFileRejectsNonObject(t *testing.T) {
	if _, err := ParseExportFile([]byte(`"just a string"`)); err == nil {
		t.Error("expected a hard failure for a non-object payload")
	}
	if _, err := ParseExportFile([]byte(`[1,2,3]`)); err == nil {
		t.Error("expected a hard failure for an array payload")
	}
	if _, err := ParseExportFile([]byte(`null`)); err == nil {
		t.Error("expected a hard failure for a null payload")
	}
}

func TestExportRoundTrip(t *testing.T) {
	tmpl := NewTemplate("Quote")
	tmpl.Body = "<p>hello</p>"
	tmpl.Fields = []Field{{ID: "f1", Name: "client", Type: FieldTypeText}}
	tmpl.ValuesByFieldID["f1"] = "Acme"
	tmpl.TextDirection = DirectionRTL

	ef := NewExportFile(tmpl, "1.0.0")
	back := ef.ToTemplate()
	if back.Name != "Quote" || back.Body != "<p>hello</p>" {
		t.Errorf("round trip lost data: %+v", back)
	}
	if back.ValuesByFieldID["f1"] != "Acme" {
		t.Error("round trip lost field values")
	}
	if back.TextDirection != DirectionRTL {
		t.Errorf("round trip lost direction, got %q", back.TextDirection)
	}
}
