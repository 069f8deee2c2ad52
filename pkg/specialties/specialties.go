// Package specialties holds the fixed taxonomy of practitioner specialties.
package specialties

import "strings"

// Allowed is the closed set of specialty values accepted by the directory.
// Import rows carrying anything that cannot be resolved to one of these are
// rejected at validation time.
var Allowed = []string{
	"Ostéopathe animalier",
	"Dentisterie équine",
	"Maréchal-ferrant",
	"Pareur",
	"Shiatsu",
	"Saddle fitter",
	"Bit fitter",
	"Nutritionniste",
	"Masseur",
	"Algothérapeute",
	"Naturophate",
	"Comportementaliste",
}

// simplify lowercases and strips the accented characters that show up in the
// taxonomy, so "dentisterie equine" still resolves.
func simplify(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"à", "a", "â", "a",
		"î", "i", "ï", "i",
		"ô", "o", "ö", "o",
		"û", "u", "ü", "u", "ù", "u",
		"ç", "c",
	)
	return replacer.Replace(s)
}

// Resolve maps free-text input to a canonical specialty. It tries a
// case-insensitive exact match first, then an accent-insensitive substring
// match for typo tolerance. Returns false when nothing resolves.
func Resolve(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	for _, allowed := range Allowed {
		if strings.EqualFold(trimmed, allowed) {
			return allowed, true
		}
	}

	simplified := simplify(trimmed)
	for _, allowed := range Allowed {
		if strings.Contains(simplified, simplify(allowed)) {
			return allowed, true
		}
	}

	return "", false
}

// IsAllowed reports whether the value is already a canonical specialty.
func IsAllowed(value string) bool {
	for _, allowed := range Allowed {
		if value == allowed {
			return true
		}
	}
	return false
}
