// Package document implements the field-anchoring core: a mutable rich-text
// tree parsed from an HTML body, a flattened text index over it, literal
// occurrence matching, and the marker spans that anchor fields to text runs.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerClass is the class carried by every field marker span
const MarkerClass = "tpl-field"

// markerAttr holds the owning field id on a marker span
const markerAttr = "data-field-id"

// blockTags are the block-level boundaries a field selection must stay within
var blockTags = map[atom.Atom]bool{
	atom.P:  true,
	atom.Li: true,
	atom.Td: true,
	atom.Th: true,
	atom.H1: true,
	atom.H2: true,
	atom.H3: true,
	atom.H4: true,
	atom.H5: true,
	atom.H6: true,
}

// Document wraps a parsed rich-text body. All mutation goes through the
// annotator; the tree is otherwise treated as opaque content.
type Document struct {
	doc  *html.Node // full parse tree
	root *html.Node // the <body> element holding the imported fragment
}

// Parse builds a Document from an HTML body fragment
func Parse(body string) (*Document, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document body: %w", err)
	}
	root := findElement(doc, atom.Body)
	if root == nil {
		return nil, fmt.Errorf("parsed document has no body")
	}
	return &Document{doc: doc, root: root}, nil
}

// Root returns the container element holding the document content
func (d *Document) Root() *html.Node {
	return d.root
}

// HTML serializes the document content back to a body fragment
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render document: %w", err)
		}
	}
	return buf.String(), nil
}

// Blocks returns the block-level elements in document order. A body with no
// block elements is treated as a single block (the root itself).
func (d *Document) Blocks() []*html.Node {
	var blocks []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			blocks = append(blocks, n)
			return false // blocks do not nest for our purposes
		}
		return true
	})
	if len(blocks) == 0 {
		return []*html.Node{d.root}
	}
	return blocks
}

// PlainText returns the concatenated text of every text node, including text
// inside markers, in document order
func (d *Document) PlainText() string {
	return textContent(d.root)
}

// IsMarker reports whether n is a field marker span
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return false
	}
	hasClass := false
	hasID := false
	for _, a := range n.Attr {
		switch a.Key {
		case "class":
			for _, c := range strings.Fields(a.Val) {
				if c == MarkerClass {
					hasClass = true
				}
			}
		case markerAttr:
			hasID = a.Val != ""
		}
	}
	return hasClass && hasID
}

// MarkerFieldID returns the field id a marker references, or ""
func MarkerFieldID(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == markerAttr {
			return a.Val
		}
	}
	return ""
}

// insideMarker reports whether n or any ancestor is a field marker
func insideMarker(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if IsMarker(p) {
			return true
		}
	}
	return false
}

// blockOf returns the nearest enclosing block element of n, or nil
func blockOf(n *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && blockTags[p.DataAtom] {
			return p
		}
	}
	return nil
}

// Markers returns every marker span for fieldID in document order
func (d *Document) Markers(fieldID string) []*html.Node {
	var out []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if IsMarker(n) && MarkerFieldID(n) == fieldID {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// AllMarkers returns every marker span in document order
func (d *Document) AllMarkers() []*html.Node {
	var out []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if IsMarker(n) {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// BlockTexts returns the flattened text of each block in document order.
// Text sitting directly in the body outside any block element is kept as
// its own segment so nothing PlainText sees is lost.
func (d *Document) BlockTexts() []string {
	var out []string
	var stray strings.Builder
	flush := func() {
		if strings.TrimSpace(stray.String()) != "" {
			out = append(out, stray.String())
		}
		stray.Reset()
	}
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			flush()
			out = append(out, textContent(n))
			return false
		}
		if n.Type == html.TextNode {
			stray.WriteString(n.Data)
		} else if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			stray.WriteString("\n")
		}
		return true
	})
	flush()
	return out
}

// SetTextContent replaces n's children with a single text node
func SetTextContent(n *html.Node, text string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// walk visits n and its subtree in document order; visit returning false
// skips the node's children
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// textContent concatenates all descendant text, with <br> as newline
func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		} else if c.Type == html.ElementNode && c.DataAtom == atom.Br {
			sb.WriteString("\n")
		}
		return true
	})
	return sb.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && c.DataAtom == a {
			found = c
			return false
		}
		return true
	})
	return found
}
