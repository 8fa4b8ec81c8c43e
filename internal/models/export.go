package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the current template export file schema
const SchemaVersion = 1

// ExportFile is the versioned on-disk interchange format for a template
type ExportFile struct {
	SchemaVersion   int               `json:"schemaVersion"`
	AppVersion      string            `json:"appVersion"`
	SavedAt         string            `json:"savedAt"`
	TemplateID      string            `json:"templateId"`
	TemplateName    string            `json:"templateName"`
	DocName         string            `json:"docName,omitempty"`
	TemplateHTML    string            `json:"templateHtml"`
	Fields          []Field           `json:"fields"`
	ValuesByFieldID map[string]string `json:"valuesByFieldId"`
	Constants       []Constant        `json:"constants"`
	PDFFileName     string            `json:"pdfFileName,omitempty"`
	TextDirection   TextDirection     `json:"textDirection"`
}

// NewExportFile serializes a template into the interchange format
func NewExportFile(t *Template, appVersion string) *ExportFile {
	return &ExportFile{
		SchemaVersion:   SchemaVersion,
		AppVersion:      appVersion,
		SavedAt:         time.Now().Format(time.RFC3339),
		TemplateID:      t.ID,
		TemplateName:    t.Name,
		DocName:         t.DocName,
		TemplateHTML:    t.Body,
		Fields:          t.Fields,
		ValuesByFieldID: t.ValuesByFieldID,
		Constants:       t.Constants,
		PDFFileName:     t.ExportFileName,
		TextDirection:   t.TextDirection,
	}
}

// ParseExportFile decodes an export payload, substituting defaults for any
// missing or malformed field rather than rejecting the file. The only hard
// failure is a payload that is not a JSON object at all.
func ParseExportFile(data []byte) (*ExportFile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid template file: %w", err)
	}
	// json.Unmarshal accepts a bare null into a map, leaving it nil
	if raw == nil {
		return nil, fmt.Errorf("invalid template file: payload is null")
	}

	out := &ExportFile{
		SchemaVersion:   SchemaVersion,
		Fields:          []Field{},
		ValuesByFieldID: map[string]string{},
		Constants:       []Constant{},
		TextDirection:   DirectionAuto,
	}

	decodeInt(raw["schemaVersion"], &out.SchemaVersion)
	decodeString(raw["appVersion"], &out.AppVersion)
	decodeString(raw["savedAt"], &out.SavedAt)
	decodeString(raw["templateId"], &out.TemplateID)
	decodeString(raw["templateName"], &out.TemplateName)
	decodeString(raw["docName"], &out.DocName)
	decodeString(raw["templateHtml"], &out.TemplateHTML)

	if msg, ok := raw["fields"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(msg, &items); err == nil {
			for _, item := range items {
				var f Field
				if err := json.Unmarshal(item, &f); err != nil {
					continue
				}
				out.Fields = append(out.Fields, SanitizeField(f))
			}
		}
	}
	if msg, ok := raw["valuesByFieldId"]; ok {
		var values map[string]string
		if err := json.Unmarshal(msg, &values); err == nil && values != nil {
			out.ValuesByFieldID = values
		}
	}
	if msg, ok := raw["constants"]; ok {
		var constants []Constant
		if err := json.Unmarshal(msg, &constants); err == nil {
			out.Constants = SanitizeConstants(constants)
		}
	}
	decodeString(raw["pdfFileName"], &out.PDFFileName)

	var dir string
	decodeString(raw["textDirection"], &dir)
	out.TextDirection = TextDirection(dir).Normalize()

	return out, nil
}

// ToTemplate converts a parsed export file into a template aggregate
func (e *ExportFile) ToTemplate() *Template {
	t := &Template{
		ID:              e.TemplateID,
		Name:            e.TemplateName,
		DocName:         e.DocName,
		Body:            e.TemplateHTML,
		Fields:          e.Fields,
		ValuesByFieldID: e.ValuesByFieldID,
		Constants:       e.Constants,
		ExportFileName:  e.PDFFileName,
		TextDirection:   e.TextDirection,
	}
	t.Sanitize()
	return t
}

func decodeString(msg json.RawMessage, dst *string) {
	if msg == nil {
		return
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		*dst = s
	}
}

func decodeInt(msg json.RawMessage, dst *int) {
	if msg == nil {
		return
	}
	var n int
	if err := json.Unmarshal(msg, &n); err == nil {
		*dst = n
	}
}
