package importer

import (
	"testing"
)

func TestTextToBodyParagraphs(t *testing.T) {
	body := TextToBody("first paragraph\n\nsecond paragraph")
	want := "<p>first paragraph</p>\n<p>second paragraph</p>"
	if body != want {
		t.Errorf("expected %q, got %q", want, body)
	}
}

func TestTextToBodyInnerNewlines(t *testing.T) {
	body := TextToBody("line one\nline two")
	want := "<p>line one<br/>line two</p>"
	if body != want {
		t.Errorf("expected %q, got %q", want, body)
	}
}

func TestTextToBodyEscapesMarkup(t *testing.T) {
	body := TextToBody("a <b> & c")
	want := "<p>a &lt;b&gt; &amp; c</p>"
	if body != want {
		t.Errorf("expected %q, got %q", want, body)
	}
}

func TestTextToBodyCRLF(t *testing.T) {
	body := TextToBody("one\r\n\r\ntwo")
	want := "<p>one</p>\n<p>two</p>"
	if body != want {
		t.Errorf("expected %q, got %q", want, body)
	}
}

func TestTextToBodyEmpty(t *testing.T) {
	if body := TextToBody("   \n\n  "); body != "<p></p>" {
		t.Errorf("expected empty paragraph, got %q", body)
	}
}

func TestImportText(t *testing.T) {
	tmpl := ImportText("quote.txt", "hello")
	if tmpl.Name != "quote" {
		t.Errorf("expected name derived from filename, got %q", tmpl.Name)
	}
	if tmpl.DocName != "quote.txt" {
		t.Errorf("expected doc name preserved, got %q", tmpl.DocName)
	}
	if tmpl.Body != "<p>hello</p>" {
		t.Errorf("unexpected body %q", tmpl.Body)
	}
	if tmpl.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestImportTextNoName(t *testing.T) {
	tmpl := ImportText("", "hello")
	if tmpl.Name != "Template" {
		t.Errorf("expected default name, got %q", tmpl.Name)
	}
}
