package document

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapAndUnwrapRoundTrip(t *testing.T) {
	doc := mustParse(t, "<p>Hello world</p>")

	r, err := doc.ResolveSelection(Selection{Start: 6, End: 11})
	if err != nil {
		t.Fatalf("failed to resolve selection: %v", err)
	}
	if err := WrapRange(r, "f1"); err != nil {
		t.Fatalf("failed to wrap range: %v", err)
	}

	html, err := doc.HTML()
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}
	if !strings.Contains(html, `data-field-id="f1"`) {
		t.Errorf("expected a marker span in %q", html)
	}
	if doc.PlainText() != "Hello world" {
		t.Errorf("wrapping must preserve text, got %q", doc.PlainText())
	}
	if got := len(doc.Markers("f1")); got != 1 {
		t.Fatalf("expected 1 marker, got %d", got)
	}

	if n := doc.Unwrap("f1"); n != 1 {
		t.Errorf("expected 1 marker unwrapped, got %d", n)
	}
	html, err = doc.HTML()
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}
	if strings.Contains(html, "tpl-field") {
		t.Errorf("expected no markers left in %q", html)
	}
	if doc.PlainText() != "Hello world" {
		t.Errorf("unwrapping must preserve text, got %q", doc.PlainText())
	}
}

func TestUnwrapIsIdempotent(t *testing.T) {
	doc := mustParse(t, `<p><span class="tpl-field" data-field-id="f1">x</span></p>`)
	if n := doc.Unwrap("f1"); n != 1 {
		t.Fatalf("expected 1 marker unwrapped, got %d", n)
	}
	if n := doc.Unwrap("f1"); n != 0 {
		t.Errorf("second unwrap should be a no-op, got %d", n)
	}
}

func TestWrapAcrossInlineSiblings(t *testing.T) {
	// "world" spans a <b> element boundary through sibling text nodes
	doc := mustParse(t, "<p>Hello <b>wo</b>rld</p>")

	r, err := doc.ResolveSelection(Selection{Start: 7, End: 11})
	if err != nil {
		t.Fatalf("failed to resolve selection: %v", err)
	}
	// Start sits inside <b>, end in the trailing text node: different
	// inline parents are rejected rather than splitting elements
	if err := WrapRange(r, "f1"); !errors.Is(err, ErrCrossesInline) {
		t.Errorf("expected ErrCrossesInline, got %v", err)
	}
}

func TestWrapSiblingRun(t *testing.T) {
	doc := mustParse(t, "<p>one two three</p>")

	// Wrapping then unwrapping the middle word leaves the paragraph split
	// into three sibling text nodes
	r, err := doc.ResolveSelection(Selection{Start: 4, End: 7})
	if err != nil {
		t.Fatalf("failed to resolve selection: %v", err)
	}
	if err := WrapRange(r, "mid"); err != nil {
		t.Fatalf("failed to wrap: %v", err)
	}
	doc.Unwrap("mid")

	// A selection spanning two of those siblings wraps as a contiguous run
	r, err = doc.ResolveSelection(Selection{Start: 0, End: 7})
	if err != nil {
		t.Fatalf("failed to resolve sibling-run selection: %v", err)
	}
	if err := WrapRange(r, "run"); err != nil {
		t.Fatalf("failed to wrap sibling run: %v", err)
	}
	if got := len(doc.Markers("run")); got != 1 {
		t.Errorf("expected 1 marker, got %d", got)
	}
	if doc.PlainText() != "one two three" {
		t.Errorf("text must survive wrapping, got %q", doc.PlainText())
	}
}

func TestResolveSelectionRejections(t *testing.T) {
	doc := mustParse(t, `<p>ab</p><p>cd</p>`)

	if _, err := doc.ResolveSelection(Selection{Start: 1, End: 3}); !errors.Is(err, ErrCrossesBlocks) {
		t.Errorf("expected ErrCrossesBlocks, got %v", err)
	}
	if _, err := doc.ResolveSelection(Selection{Start: 2, End: 2}); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("expected ErrEmptyRange for empty selection, got %v", err)
	}
	if _, err := doc.ResolveSelection(Selection{Start: -1, End: 1}); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("expected ErrEmptyRange for negative start, got %v", err)
	}

	marked := mustParse(t, `<p>ab<span class="tpl-field" data-field-id="f1">cd</span></p>`)
	if _, err := marked.ResolveSelection(Selection{Start: 1, End: 3}); !errors.Is(err, ErrOverlapsField) {
		t.Errorf("expected ErrOverlapsField, got %v", err)
	}
}

func TestSelectionText(t *testing.T) {
	doc := mustParse(t, "<p>Hello world</p>")
	if got := doc.SelectionText(Selection{Start: 6, End: 11}); got != "world" {
		t.Errorf("expected %q, got %q", "world", got)
	}
	if got := doc.SelectionText(Selection{Start: 5, End: 5}); got != "" {
		t.Errorf("expected empty text for empty selection, got %q", got)
	}
}
