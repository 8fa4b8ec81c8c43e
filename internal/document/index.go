package document

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Segment records which text node supplied which slice of the flattened text.
// All offsets in this package are rune offsets, so the length-stable NBSP
// normalization used for matching cannot skew positions.
type Segment struct {
	Node  *html.Node
	Start int
	End   int
}

// Index is a flattened-text view of a container subtree. The index is a
// snapshot: it must be rebuilt after any mutation of the subtree.
type Index struct {
	Text     string
	Segments []Segment
}

// Position is a (text node, local rune offset) pair
type Position struct {
	Node   *html.Node
	Offset int
}

// BuildIndex flattens the visible text of container, excluding text that
// already lies inside a field marker
func BuildIndex(container *html.Node) *Index {
	return buildIndex(container, true)
}

// BuildFullIndex flattens all text of container, marker content included.
// Visual selections are expressed as offsets into this view.
func BuildFullIndex(container *html.Node) *Index {
	return buildIndex(container, false)
}

func buildIndex(container *html.Node, skipMarkers bool) *Index {
	ix := &Index{}
	var sb strings.Builder
	length := 0
	walk(container, func(n *html.Node) bool {
		if skipMarkers && IsMarker(n) {
			return false
		}
		if n.Type == html.TextNode && n.Data != "" {
			start := length
			sb.WriteString(n.Data)
			length += utf8.RuneCountInString(n.Data)
			ix.Segments = append(ix.Segments, Segment{Node: n, Start: start, End: length})
		}
		return true
	})
	ix.Text = sb.String()
	return ix
}

// Length returns the total flattened text length in runes
func (ix *Index) Length() int {
	if len(ix.Segments) == 0 {
		return 0
	}
	return ix.Segments[len(ix.Segments)-1].End
}

// Locate maps an absolute rune offset back to a (node, local offset) pair.
// Offset 0 resolves to the start of the first segment, Length() to the end
// of the last. An empty index reports no position.
func (ix *Index) Locate(pos int) (Position, bool) {
	if len(ix.Segments) == 0 {
		return Position{}, false
	}
	if pos <= 0 {
		return Position{Node: ix.Segments[0].Node, Offset: 0}, true
	}
	for _, seg := range ix.Segments {
		if pos <= seg.End {
			off := pos - seg.Start
			if off < 0 {
				off = 0
			}
			return Position{Node: seg.Node, Offset: off}, true
		}
	}
	last := ix.Segments[len(ix.Segments)-1]
	return Position{Node: last.Node, Offset: utf8.RuneCountInString(last.Node.Data)}, true
}

// NormalizeForSearch makes non-breaking spaces match regular spaces. The
// replacement is rune-for-rune, so rune offsets into the normalized text are
// valid offsets into the original.
func NormalizeForSearch(text string) string {
	return strings.ReplaceAll(text, " ", " ")
}
