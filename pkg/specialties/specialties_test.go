package specialties

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveExactMatch(t *testing.T) {
	resolved, ok := Resolve("Ostéopathe animalier")
	assert.True(t, ok)
	assert.Equal(t, "Ostéopathe animalier", resolved)
}

func TestResolveCaseInsensitive(t *testing.T) {
	resolved, ok := Resolve("ostéopathe ANIMALIER")
	assert.True(t, ok)
	assert.Equal(t, "Ostéopathe animalier", resolved)
}

func TestResolveAccentInsensitiveSubstring(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"osteopathe animalier", "Ostéopathe animalier"},
		{"dentisterie equine certifiée", "Dentisterie équine"},
		{"marechal-ferrant", "Maréchal-ferrant"},
		{"spécialiste shiatsu", "Shiatsu"},
	}

	for _, tt := range tests {
		resolved, ok := Resolve(tt.input)
		assert.True(t, ok, "input: %q", tt.input)
		assert.Equal(t, tt.expected, resolved, "input: %q", tt.input)
	}
}

func TestResolveUnknown(t *testing.T) {
	_, ok := Resolve("Astrologue équin")
	assert.False(t, ok)

	_, ok = Resolve("")
	assert.False(t, ok)

	_, ok = Resolve("   ")
	assert.False(t, ok)
}

func TestIsAllowed(t *testing.T) {
	assert.True(t, IsAllowed("Pareur"))
	assert.False(t, IsAllowed("pareur"))
	assert.False(t, IsAllowed("Vétérinaire"))
}
