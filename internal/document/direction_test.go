package document

import (
	"testing"

	"github.com/quotetpl/quotetpl/internal/models"
)

func TestDetectDirection(t *testing.T) {
	tests := []struct {
		text string
		want models.TextDirection
	}{
		{"Hello world", models.DirectionLTR},
		{"שלום עולם", models.DirectionRTL},
		{"مرحبا", models.DirectionRTL},
		{"123 שלום", models.DirectionRTL}, // digits are weak, first strong wins
		{"123 hello", models.DirectionLTR},
		{"!@# €", models.DirectionLTR}, // no strong characters defaults to LTR
		{"", models.DirectionLTR},
		{"Éclair", models.DirectionLTR}, // extended Latin is strong LTR
		{"؟ما هذا", models.DirectionRTL},
	}
	for _, tt := range tests {
		if got := DetectDirection(tt.text); got != tt.want {
			t.Errorf("DetectDirection(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}
