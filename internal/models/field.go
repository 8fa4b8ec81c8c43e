package models

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// FieldType enumerates the kinds of values a field can carry
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDate    FieldType = "date"
	FieldTypeFormula FieldType = "formula"
)

// IsValid reports whether t is one of the known field types
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeFormula:
		return true
	}
	return false
}

// Field is a named slot anchored into the document body by marker spans.
// Name doubles as the identifier formulas reference, so it is kept in
// safe-name form at all times.
type Field struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Type               FieldType `json:"type"`
	Formula            string    `json:"formula,omitempty"`
	MatchText          string    `json:"matchText,omitempty"`
	MatchCaseSensitive bool      `json:"matchCaseSensitive,omitempty"`
}

// Constant is a named value available to every formula
type Constant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var (
	identifierRe      = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	unsafeNameChars   = regexp.MustCompile(`[^a-z0-9_ ]+`)
	repeatUnderscore  = regexp.MustCompile(`_+`)
	whitespaceCluster = regexp.MustCompile(`\s+`)
)

// IsValidIdentifier reports whether name is usable inside a formula
func IsValidIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// ToSafeName normalizes an arbitrary label into a formula-safe identifier:
// lowercase, non-alphanumerics stripped, spaces collapsed to underscores.
// An input that sanitizes to nothing gets a random fallback name.
func ToSafeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = unsafeNameChars.ReplaceAllString(s, "")
	s = whitespaceCluster.ReplaceAllString(s, "_")
	s = repeatUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return fmt.Sprintf("field_%d", rand.Intn(10000))
	}
	return s
}

// NewID returns a fresh identifier
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SanitizeField applies defaults so a field read from external data is
// always usable: missing ids and names are generated, unknown types fall
// back to text, and non-formula fields carry no formula
func SanitizeField(f Field) Field {
	if f.ID == "" {
		f.ID = NewID()
	}
	f.Name = ToSafeName(f.Name)
	if !f.Type.IsValid() {
		f.Type = FieldTypeText
	}
	if f.Type != FieldTypeFormula {
		f.Formula = ""
	}
	return f
}

// SanitizeConstants normalizes constant names and drops entries with an
// empty value
func SanitizeConstants(constants []Constant) []Constant {
	out := make([]Constant, 0, len(constants))
	for _, c := range constants {
		c.Name = ToSafeName(c.Name)
		if strings.TrimSpace(c.Value) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
