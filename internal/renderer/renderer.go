// Package renderer produces filled output from a template: the body HTML
// with every field marker replaced by its computed value, a plain-text
// rendering of the filled document, and a paginated PDF export.
package renderer

import (
	"fmt"
	"strings"

	"github.com/quotetpl/quotetpl/internal/document"
	"github.com/quotetpl/quotetpl/internal/eval"
	"github.com/quotetpl/quotetpl/internal/models"
)

// ErrValue is the placeholder written into a marker whose field value
// could not be computed.
const ErrValue = "#ERR"

// Renderer fills templates using the given formula engine.
type Renderer struct {
	engine eval.Engine
}

// NewRenderer returns a renderer backed by engine.
func NewRenderer(engine eval.Engine) *Renderer {
	return &Renderer{engine: engine}
}

// FilledHTML returns the template body with every marker's content replaced
// by the owning field's display value. Markers that reference a field no
// longer present on the template are left untouched.
func (r *Renderer) FilledHTML(t *models.Template) (string, error) {
	doc, err := r.fill(t)
	if err != nil {
		return "", err
	}
	return doc.HTML()
}

// FilledText returns the filled document as plain text, one line per block.
func (r *Renderer) FilledText(t *models.Template) (string, error) {
	doc, err := r.fill(t)
	if err != nil {
		return "", err
	}
	return strings.Join(doc.BlockTexts(), "\n"), nil
}

// ResolveDirection returns the direction the filled document should be laid
// out in. An explicit template setting wins; auto falls back to first-strong
// detection over the filled text.
func (r *Renderer) ResolveDirection(t *models.Template) models.TextDirection {
	dir := t.TextDirection.Normalize()
	if dir != models.DirectionAuto {
		return dir
	}
	text, err := r.FilledText(t)
	if err != nil {
		text = t.DocName
	}
	return document.DetectDirection(text)
}

func (r *Renderer) fill(t *models.Template) (*document.Document, error) {
	doc, err := document.Parse(t.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template body: %w", err)
	}
	for _, marker := range doc.AllMarkers() {
		id := document.MarkerFieldID(marker)
		field, ok := t.FieldByID(id)
		if !ok {
			continue
		}
		d := eval.ComputeFieldValue(r.engine, field, t.Fields, t.Constants, t.ValuesByFieldID)
		text := d.Text
		if d.Err {
			text = ErrValue
		}
		document.SetTextContent(marker, text)
	}
	return doc, nil
}

// FieldDisplay pairs a field with its computed display value.
type FieldDisplay struct {
	Field   models.Field
	Display eval.Display
}

// FieldDisplays computes the display value for every field on the template.
func (r *Renderer) FieldDisplays(t *models.Template) []FieldDisplay {
	out := make([]FieldDisplay, 0, len(t.Fields))
	for _, f := range t.Fields {
		out = append(out, FieldDisplay{
			Field:   f,
			Display: eval.ComputeFieldValue(r.engine, f, t.Fields, t.Constants, t.ValuesByFieldID),
		})
	}
	return out
}
