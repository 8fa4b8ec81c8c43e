package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/quotetpl/quotetpl/internal/models"
)

// PageOptions controls the PDF page geometry and typography.
type PageOptions struct {
	Size       string
	MarginPt   float64
	FontSize   float64
	LineHeight float64
}

// DefaultPageOptions returns the geometry used when the caller does not
// supply one: A4, 54pt margins, 12pt type on 18pt leading.
func DefaultPageOptions() PageOptions {
	return PageOptions{
		Size:       "A4",
		MarginPt:   54,
		FontSize:   12,
		LineHeight: 18,
	}
}

func (o PageOptions) normalized() PageOptions {
	def := DefaultPageOptions()
	if o.Size == "" {
		o.Size = def.Size
	}
	if o.MarginPt <= 0 {
		o.MarginPt = def.MarginPt
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	if o.LineHeight <= 0 {
		o.LineHeight = def.LineHeight
	}
	return o
}

// ExportPDF renders the filled template as a paginated PDF and writes it
// to w. A computation failure inside a field still renders as its error
// placeholder; the export only fails when the PDF itself cannot be written.
func (r *Renderer) ExportPDF(t *models.Template, opts PageOptions, w io.Writer) error {
	text, err := r.FilledText(t)
	if err != nil {
		return err
	}
	dir := r.ResolveDirection(t)
	return WritePDF(w, strings.Split(text, "\n"), dir, opts)
}

// WritePDF lays out the given lines, one paragraph per line, wrapping and
// paginating as needed. RTL documents are right-aligned.
func WritePDF(w io.Writer, lines []string, dir models.TextDirection, opts PageOptions) error {
	opts = opts.normalized()
	pdf := gofpdf.New("P", "pt", opts.Size, "")
	pdf.SetMargins(opts.MarginPt, opts.MarginPt, opts.MarginPt)
	pdf.SetAutoPageBreak(true, opts.MarginPt)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", opts.FontSize)

	align := "L"
	if dir == models.DirectionRTL {
		align = "R"
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	width := pageW - 2*opts.MarginPt

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(opts.LineHeight)
			continue
		}
		pdf.MultiCell(width, opts.LineHeight, tr(line), "", align, false)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
