package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TextDirection controls rendering orientation of the document body
type TextDirection string

const (
	DirectionAuto TextDirection = "auto"
	DirectionLTR  TextDirection = "ltr"
	DirectionRTL  TextDirection = "rtl"
)

// Normalize maps unknown values to auto
func (d TextDirection) Normalize() TextDirection {
	switch d {
	case DirectionLTR, DirectionRTL, DirectionAuto:
		return d
	}
	return DirectionAuto
}

// Template is the owning aggregate: a rich-text body, its fields and their
// raw input values, the constants, and export metadata
type Template struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	DocName         string            `json:"docName,omitempty"`
	Body            string            `json:"body"`
	Fields          []Field           `json:"fields"`
	ValuesByFieldID map[string]string `json:"valuesByFieldId"`
	Constants       []Constant        `json:"constants"`
	ExportFileName  string            `json:"exportFileName,omitempty"`
	TextDirection   TextDirection     `json:"textDirection"`
}

// NewTemplate returns an empty template with a fresh id and timestamps
func NewTemplate(name string) *Template {
	now := time.Now()
	return &Template{
		ID:              NewID(),
		Name:            name,
		CreatedAt:       now,
		UpdatedAt:       now,
		Fields:          []Field{},
		ValuesByFieldID: map[string]string{},
		Constants:       []Constant{},
		TextDirection:   DirectionAuto,
	}
}

// Sanitize applies the defaulting pass on every load/import boundary so a
// template read from external data is always internally consistent
func (t *Template) Sanitize() {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Name == "" {
		t.Name = "Untitled"
	}
	for i, f := range t.Fields {
		t.Fields[i] = SanitizeField(f)
	}
	if t.ValuesByFieldID == nil {
		t.ValuesByFieldID = map[string]string{}
	}
	t.Constants = SanitizeConstants(t.Constants)
	t.TextDirection = t.TextDirection.Normalize()
}

// FieldByID returns the field with the given id, if any
func (t *Template) FieldByID(id string) (Field, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// HasBody reports whether a document has been imported into this template
func (t *Template) HasBody() bool {
	return strings.TrimSpace(t.Body) != ""
}

// Implement list.Item for the bubbles list component

// FilterValue returns the value used for filtering in lists
func (t Template) FilterValue() string { return t.Name }

// Title satisfies the list.Item interface
func (t Template) Title() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// Description satisfies the list.Item interface
func (t Template) Description() string {
	var parts []string
	if t.DocName != "" {
		parts = append(parts, t.DocName)
	}
	if n := len(t.Fields); n == 1 {
		parts = append(parts, "1 field")
	} else if n > 1 {
		parts = append(parts, strconv.Itoa(n)+" fields")
	}
	if !t.UpdatedAt.IsZero() {
		parts = append(parts, "Last edited: "+t.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " • ")
}

var (
	fileExtension   = regexp.MustCompile(`\.[^.]+$`)
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// SafeFileBase strips the extension and sanitizes name into a filename base
func SafeFileBase(name string) string {
	base := fileExtension.ReplaceAllString(strings.TrimSpace(name), "")
	cleaned := unsafeFileChars.ReplaceAllString(base, "_")
	cleaned = repeatUnderscore.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "template"
	}
	return cleaned
}

// NormalizePDFFileName resolves the effective export filename, falling back
// to fallbackBase when name is empty, and ensures a .pdf suffix
func NormalizePDFFileName(name, fallbackBase string) string {
	raw := strings.TrimSpace(name)
	if raw == "" {
		raw = strings.TrimSpace(fallbackBase)
	}
	base := SafeFileBase(raw)
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		return base
	}
	return base + ".pdf"
}
