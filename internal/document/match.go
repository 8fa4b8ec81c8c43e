package document

import "strings"

// MatchOptions control literal occurrence matching
type MatchOptions struct {
	CaseSensitive bool
	WholeWord     bool
}

// FindAll returns the rune offsets of every non-overlapping occurrence of
// needle in haystack, in ascending order. Matching is literal; when case is
// folded it is simple folding, not locale-aware. With WholeWord set, a match
// is rejected when the rune immediately before or after it is a word
// character, but scanning still resumes past the rejected occurrence.
func FindAll(haystack, needle string, opts MatchOptions) []int {
	out := []int{}
	if needle == "" {
		return out
	}

	h := haystack
	n := needle
	if !opts.CaseSensitive {
		h = strings.ToLower(h)
		n = strings.ToLower(n)
	}
	hr := []rune(h)
	nr := []rune(n)

	for i := 0; i+len(nr) <= len(hr); {
		if !runesEqual(hr[i:i+len(nr)], nr) {
			i++
			continue
		}
		if opts.WholeWord {
			boundaryOK := true
			if i > 0 && isWordChar(hr[i-1]) {
				boundaryOK = false
			}
			if end := i + len(nr); end < len(hr) && isWordChar(hr[end]) {
				boundaryOK = false
			}
			if boundaryOK {
				out = append(out, i)
			}
		} else {
			out = append(out, i)
		}
		i += len(nr) // non-overlapping
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isWordChar matches letters, digits and underscore (ASCII, like the
// identifier syntax fields use)
func isWordChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}
