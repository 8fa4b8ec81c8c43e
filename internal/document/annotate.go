package document

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Validation rejections surfaced to callers as reason strings. No mutation
// happens when any of these is returned.
var (
	ErrEmptyRange    = errors.New("selection is empty")
	ErrCrossesBlocks = errors.New("selection spans multiple paragraphs")
	ErrOverlapsField = errors.New("selection overlaps an existing field")
	ErrCrossesInline = errors.New("selection crosses formatting boundaries")
	ErrInvalidRange  = errors.New("selection does not resolve to text")
)

// Range is a resolved text range: (node, rune offset) anchors into two text
// nodes of the same block
type Range struct {
	StartNode   *html.Node
	StartOffset int
	EndNode     *html.Node
	EndOffset   int
}

// Selection is a visual text selection expressed as absolute rune offsets
// into the full flattened text of the document (marker content included)
type Selection struct {
	Start int
	End   int
}

// ResolveSelection validates a selection and maps it to a concrete Range.
// Rejections are distinguishable: spanning multiple blocks and touching an
// existing marker produce different errors.
func (d *Document) ResolveSelection(sel Selection) (Range, error) {
	ix := BuildFullIndex(d.root)
	if sel.Start < 0 || sel.End > ix.Length() || sel.Start >= sel.End {
		return Range{}, ErrEmptyRange
	}
	start, ok := ix.Locate(sel.Start)
	if !ok {
		return Range{}, ErrInvalidRange
	}
	end, ok := ix.Locate(sel.End)
	if !ok {
		return Range{}, ErrInvalidRange
	}
	if insideMarker(start.Node) || insideMarker(end.Node) {
		return Range{}, ErrOverlapsField
	}
	if blockOf(start.Node) != blockOf(end.Node) {
		return Range{}, ErrCrossesBlocks
	}
	return Range{
		StartNode:   start.Node,
		StartOffset: start.Offset,
		EndNode:     end.Node,
		EndOffset:   end.Offset,
	}, nil
}

// SelectionText returns the flattened text covered by sel
func (d *Document) SelectionText(sel Selection) string {
	ix := BuildFullIndex(d.root)
	runes := []rune(ix.Text)
	if sel.Start < 0 || sel.End > len(runes) || sel.Start >= sel.End {
		return ""
	}
	return string(runes[sel.Start:sel.End])
}

// WrapRange replaces the range's content with a marker span carrying fieldID,
// preserving the original content inside the marker. Both anchors must be
// text nodes; a range whose endpoints sit under different inline parents is
// rejected rather than splitting element nodes.
func WrapRange(r Range, fieldID string) error {
	if r.StartNode == nil || r.EndNode == nil ||
		r.StartNode.Type != html.TextNode || r.EndNode.Type != html.TextNode {
		return ErrInvalidRange
	}

	if r.StartNode == r.EndNode {
		return wrapWithinNode(r.StartNode, r.StartOffset, r.EndOffset, fieldID)
	}

	parent := r.StartNode.Parent
	if parent == nil || r.EndNode.Parent != parent {
		return ErrCrossesInline
	}

	endLen := runeLen(r.EndNode.Data)
	if r.EndOffset > 0 && r.EndOffset < endLen {
		splitText(r.EndNode, r.EndOffset) // EndNode keeps the covered head
	}

	var first *html.Node
	switch {
	case r.StartOffset <= 0:
		first = r.StartNode
	case r.StartOffset >= runeLen(r.StartNode.Data):
		first = r.StartNode.NextSibling
	default:
		first = splitText(r.StartNode, r.StartOffset)
	}

	last := r.EndNode
	if r.EndOffset == 0 {
		last = r.EndNode.PrevSibling
	}
	if first == nil || last == nil {
		return ErrEmptyRange
	}

	// first..last must be a contiguous sibling run
	found := false
	for c := first; c != nil; c = c.NextSibling {
		if c == last {
			found = true
			break
		}
	}
	if !found {
		return ErrInvalidRange
	}

	span := newMarker(fieldID)
	parent.InsertBefore(span, first)
	for {
		c := span.NextSibling
		if c == nil {
			break
		}
		parent.RemoveChild(c)
		span.AppendChild(c)
		if c == last {
			break
		}
	}
	return nil
}

// wrapWithinNode wraps a sub-run of a single text node
func wrapWithinNode(node *html.Node, start, end int, fieldID string) error {
	length := runeLen(node.Data)
	if start < 0 || end > length || start >= end {
		return ErrEmptyRange
	}
	parent := node.Parent
	if parent == nil {
		return ErrInvalidRange
	}

	if end < length {
		splitText(node, end)
	}
	mid := node
	if start > 0 {
		mid = splitText(node, start)
	}

	span := newMarker(fieldID)
	parent.InsertBefore(span, mid)
	parent.RemoveChild(mid)
	span.AppendChild(mid)
	return nil
}

// Unwrap removes every marker for fieldID, splicing each marker's children
// back into its parent in place. Content is preserved; only the annotation
// goes away. Zero markers is a no-op; the count removed is returned.
func (d *Document) Unwrap(fieldID string) int {
	markers := d.Markers(fieldID)
	for _, span := range markers {
		parent := span.Parent
		if parent == nil {
			continue
		}
		for span.FirstChild != nil {
			c := span.FirstChild
			span.RemoveChild(c)
			parent.InsertBefore(c, span)
		}
		parent.RemoveChild(span)
	}
	return len(markers)
}

// splitText splits a text node at a rune offset. The node keeps the head;
// the tail is inserted as the next sibling and returned.
func splitText(n *html.Node, runeOff int) *html.Node {
	byteOff := runeByteIndex(n.Data, runeOff)
	tail := &html.Node{Type: html.TextNode, Data: n.Data[byteOff:]}
	n.Data = n.Data[:byteOff]
	if n.NextSibling != nil {
		n.Parent.InsertBefore(tail, n.NextSibling)
	} else {
		n.Parent.AppendChild(tail)
	}
	return tail
}

func newMarker(fieldID string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr: []html.Attribute{
			{Key: "class", Val: MarkerClass},
			{Key: markerAttr, Val: fieldID},
		},
	}
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// runeByteIndex converts a rune offset into a byte offset within s
func runeByteIndex(s string, runeOff int) int {
	if runeOff <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == runeOff {
			return i
		}
		count++
	}
	return len(s)
}
