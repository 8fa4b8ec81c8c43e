package importer

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

// buildDocx packs a document.xml payload into an in-memory zip container
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

const docxHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docxFooter = `</w:body></w:document>`

func TestDocxToBodyParagraphs(t *testing.T) {
	data := buildDocx(t, docxHeader+
		`<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Second</w:t></w:r></w:p>`+
		docxFooter)

	body, err := DocxToBody(data)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	want := "<p>Hello world</p>\n<p>Second</p>"
	if body != want {
		t.Errorf("expected %q, got %q", want, body)
	}
}

func TestDocxToBodyHeadings(t *testing.T) {
	data := buildDocx(t, docxHeader+
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Title</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Body text</w:t></w:r></w:p>`+
		docxFooter)

	body, err := DocxToBody(data)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if !strings.Contains(body, "<h1>Title</h1>") {
		t.Errorf("expected h1 heading in %q", body)
	}
	if !strings.Contains(body, "<p>Body text</p>") {
		t.Errorf("expected plain paragraph in %q", body)
	}
}

func TestDocxToBodyTableCells(t *testing.T) {
	data := buildDocx(t, docxHeader+
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Cell one</w:t></w:r></w:p></w:tc>`+
		`<w:tc><w:p><w:r><w:t>Cell two</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`+
		docxFooter)

	body, err := DocxToBody(data)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if !strings.Contains(body, "Cell one") || !strings.Contains(body, "Cell two") {
		t.Errorf("expected table cell text in %q", body)
	}
}

func TestDocxToBodyEscapesMarkup(t *testing.T) {
	data := buildDocx(t, docxHeader+
		`<w:p><w:r><w:t>a &lt;b&gt; &amp; c</w:t></w:r></w:p>`+
		docxFooter)

	body, err := DocxToBody(data)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	want := "<p>a &lt;b&gt; &amp; c</p>"
	if body != want {
		t.Errorf("expected %q, got %q", want, body)
	}
}

func TestDocxToBodyEmptyDocument(t *testing.T) {
	data := buildDocx(t, docxHeader+docxFooter)
	body, err := DocxToBody(data)
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if body != "<p></p>" {
		t.Errorf("expected empty paragraph, got %q", body)
	}
}

func TestDocxToBodyNotAZip(t *testing.T) {
	if _, err := DocxToBody([]byte("not a zip file")); err == nil {
		t.Error("expected an error for a non-zip payload")
	}
}

func TestDocxToBodyMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("something/else.xml")
	w.Write([]byte("<x/>"))
	zw.Close()

	if _, err := DocxToBody(buf.Bytes()); err == nil {
		t.Error("expected an error when word/document.xml is missing")
	}
}

func TestImportDocx(t *testing.T) {
	data := buildDocx(t, docxHeader+`<w:p><w:r><w:t>hi</w:t></w:r></w:p>`+docxFooter)
	tmpl, err := ImportDocx("quote.docx", data)
	if err != nil {
		t.Fatalf("failed to import: %v", err)
	}
	if tmpl.Name != "quote" {
		t.Errorf("expected name derived from filename, got %q", tmpl.Name)
	}
	if tmpl.Body != "<p>hi</p>" {
		t.Errorf("unexpected body %q", tmpl.Body)
	}
}
