package document

import (
	"strings"
	"unicode/utf8"
)

// ApplyToAllMatches wraps every whole-word occurrence of literal with a
// marker for fieldID and returns the number of markers created. Each block
// is processed independently: matches are found once up front, then wrapped
// in descending offset order, rebuilding the block's index before each wrap
// so only the match currently being wrapped needs fresh offsets. A candidate
// whose text no longer equals the needle, or whose anchors resolve inside an
// existing marker, is skipped.
func (d *Document) ApplyToAllMatches(fieldID, literal string, caseSensitive bool) int {
	needle := strings.TrimSpace(NormalizeForSearch(literal))
	if needle == "" {
		return 0
	}
	needleLen := utf8.RuneCountInString(needle)
	opts := MatchOptions{CaseSensitive: caseSensitive, WholeWord: true}

	wrapped := 0
	for _, block := range d.Blocks() {
		initial := BuildIndex(block)
		occurrences := FindAll(NormalizeForSearch(initial.Text), needle, opts)
		if len(occurrences) == 0 {
			continue
		}

		// Back to front: wrapping mutates the tree and invalidates offsets
		// after the wrapped match, but matches before it stay valid until
		// their own turn.
		for k := len(occurrences) - 1; k >= 0; k-- {
			startPos := occurrences[k]
			endPos := startPos + needleLen

			cur := BuildIndex(block)
			curHay := NormalizeForSearch(cur.Text)
			hayRunes := []rune(curHay)
			if endPos > len(hayRunes) {
				continue
			}
			candidate := string(hayRunes[startPos:endPos])
			if !equalFold(candidate, needle, caseSensitive) {
				continue
			}

			start, ok := cur.Locate(startPos)
			if !ok {
				continue
			}
			end, ok := cur.Locate(endPos)
			if !ok {
				continue
			}
			if insideMarker(start.Node) || insideMarker(end.Node) {
				continue
			}

			r := Range{
				StartNode:   start.Node,
				StartOffset: start.Offset,
				EndNode:     end.Node,
				EndOffset:   end.Offset,
			}
			if err := WrapRange(r, fieldID); err != nil {
				continue
			}
			wrapped++
		}
	}
	return wrapped
}

func equalFold(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return strings.ToLower(a) == strings.ToLower(b)
}
