package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"lowercases", "FRANCE", "france"},
		{"trims whitespace", "  Spain ", "spain"},
		{"strips acute accents", "Perú", "peru"},
		{"strips umlauts", "Türkiye", "turkiye"},
		{"strips tilde", "España", "espana"},
		{"strips cedilla", "Curaçao", "curacao"},
		{"mixed case and accents", "CÔTE D'IVOIRE", "cote d'ivoire"},
		{"already normalized", "japan", "japan"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.in))
		})
	}
}

func TestNormalize_EqualForms(t *testing.T) {
	// All spellings of the same country must collapse to one key.
	forms := []string{"Mexico", "México", "MEXICO", " méxico "}
	for _, f := range forms[1:] {
		assert.Equal(t, Normalize(forms[0]), Normalize(f), "form %q", f)
	}
}
