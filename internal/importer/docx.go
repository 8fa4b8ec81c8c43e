package importer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/quotetpl/quotetpl/internal/models"
)

// DocxToBody converts the bytes of a .docx file into a rich-text body.
// The adapter reads word/document.xml from the zip container, flattens each
// paragraph's runs into one text line, and maps heading styles onto heading
// elements. Anything it does not understand is passed through as plain
// paragraphs; full format fidelity is not a goal.
func DocxToBody(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open document container: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open document part: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("failed to read document part: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("not a Word document: missing word/document.xml")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(docXML); err != nil {
		return "", fmt.Errorf("failed to parse document XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("document XML has no root element")
	}

	var paras []string
	collectBlocks(root, &paras)
	if len(paras) == 0 {
		return "<p></p>", nil
	}
	return strings.Join(paras, "\n"), nil
}

// collectBlocks walks the document tree gathering paragraph-level blocks
func collectBlocks(elem *etree.Element, out *[]string) {
	for _, child := range elem.ChildElements() {
		switch child.Tag {
		case "p":
			text := paragraphText(child)
			if strings.TrimSpace(text) == "" {
				continue
			}
			tag := headingTag(child)
			*out = append(*out, "<"+tag+">"+html.EscapeString(text)+"</"+tag+">")
		case "tbl", "tr", "tc", "body":
			collectBlocks(child, out)
		default:
			collectBlocks(child, out)
		}
	}
}

// paragraphText flattens a paragraph's runs, honoring explicit tabs and breaks
func paragraphText(p *etree.Element) string {
	var sb strings.Builder
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			switch child.Tag {
			case "t":
				sb.WriteString(child.Text())
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString(" ")
			default:
				walk(child)
			}
		}
	}
	walk(p)
	return sb.String()
}

// headingTag maps a paragraph's style onto an HTML block tag
func headingTag(p *etree.Element) string {
	pPr := p.SelectElement("pPr")
	if pPr == nil {
		return "p"
	}
	style := pPr.SelectElement("pStyle")
	if style == nil {
		return "p"
	}
	val := style.SelectAttrValue("w:val", style.SelectAttrValue("val", ""))
	if !strings.HasPrefix(val, "Heading") {
		return "p"
	}
	switch strings.TrimPrefix(val, "Heading") {
	case "1":
		return "h1"
	case "2":
		return "h2"
	case "3":
		return "h3"
	case "4":
		return "h4"
	case "5":
		return "h5"
	case "6":
		return "h6"
	}
	return "p"
}

// ImportDocx builds a fresh template from a Word document
func ImportDocx(name string, data []byte) (*models.Template, error) {
	body, err := DocxToBody(data)
	if err != nil {
		return nil, err
	}
	t := models.NewTemplate(templateName(name))
	t.DocName = name
	t.Body = body
	return t, nil
}
