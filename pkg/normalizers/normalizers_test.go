package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jean Dupont", "jean-dupont"},
		{"Jean   Dupont!!", "jean-dupont"},
		{"Écurie de l'Étoile", "ecurie-de-l-etoile"},
		{"Maréchal-Ferrant", "marechal-ferrant"},
		{"  trailing  ", "trailing"},
		{"---", ""},
		{"", ""},
		{"Château d'Ô 42", "chateau-d-o-42"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Slugify(tt.input), "input: %q", tt.input)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+33 6 12 34 56 78", "0612345678"},
		{"+33612345678", "0612345678"},
		{"33612345678", "0612345678"},
		{"06 12 34 56 78", "0612345678"},
		{"06.12.34.56.78", "0612345678"},
		{"0612345678", "0612345678"},
		{"", ""},
		// Not a French number: stripped but returned as-is.
		{"+1 (555) 123-4567", "+15551234567"},
		{"12345", "12345"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizePhone(tt.input), "input: %q", tt.input)
	}
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Ecurie de l'Etoile", StripDiacritics("Écurie de l'Étoile"))
	assert.Equal(t, "Osteopathe equin", StripDiacritics("Ostéopathe équin"))
	assert.Equal(t, "plain", StripDiacritics("plain"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jean@example.com", NormalizeEmail("  Jean@Example.COM "))
}

func TestApplyRegistry(t *testing.T) {
	assert.Equal(t, "jean-dupont", Apply("Jean Dupont", "slug"))
	assert.Equal(t, "0612345678", Apply("+33612345678", "nphone"))
	// Unknown normalizers pass the value through.
	assert.Equal(t, "unchanged", Apply("unchanged", "nope"))
}
