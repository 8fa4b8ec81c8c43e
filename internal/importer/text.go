// Package importer adapts external documents into rich-text template bodies.
package importer

import (
	"html"
	"strings"

	"github.com/quotetpl/quotetpl/internal/models"
)

// TextToBody converts raw text into a rich-text body: one paragraph per
// blank-line-delimited group, with single newlines kept as line breaks
func TextToBody(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var paras []string
	var buf []string
	flush := func() {
		if len(buf) == 0 {
			return
		}
		joined := html.EscapeString(strings.Join(buf, "\n"))
		paras = append(paras, "<p>"+strings.ReplaceAll(joined, "\n", "<br/>")+"</p>")
		buf = nil
	}
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		buf = append(buf, line)
	}
	flush()

	if len(paras) == 0 {
		return "<p></p>"
	}
	return strings.Join(paras, "\n")
}

// ImportText builds a fresh template from a plain-text document
func ImportText(name, text string) *models.Template {
	t := models.NewTemplate(templateName(name))
	t.DocName = name
	t.Body = TextToBody(text)
	return t
}

// templateName derives a template name from a filename
func templateName(name string) string {
	base := strings.TrimSpace(name)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	if base == "" {
		return "Template"
	}
	return base
}
