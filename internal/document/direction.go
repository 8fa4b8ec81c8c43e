package document

import "github.com/quotetpl/quotetpl/internal/models"

// DetectDirection classifies text orientation by first-strong detection:
// the first code point with a decisive directional class wins. Text with no
// decisive code point defaults to left-to-right.
func DetectDirection(text string) models.TextDirection {
	for _, r := range text {
		switch {
		// Hebrew
		case r >= 0x0590 && r <= 0x05ff:
			return models.DirectionRTL
		// Arabic and related blocks
		case (r >= 0x0600 && r <= 0x06ff) ||
			(r >= 0x0750 && r <= 0x077f) ||
			(r >= 0x08a0 && r <= 0x08ff):
			return models.DirectionRTL
		// Basic Latin letters
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			return models.DirectionLTR
		// Extended Latin
		case r >= 0x00c0 && r <= 0x02af:
			return models.DirectionLTR
		}
	}
	return models.DirectionLTR
}
