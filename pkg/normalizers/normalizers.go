// Package normalizers provides field normalization functions for import matching
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", strings.ToLower)
	Register("trim", strings.TrimSpace)
	Register("slug", Slugify)
	Register("nphone", NormalizePhone)
	Register("nemail", NormalizeEmail)
	Register("strip_accents", StripDiacritics)
	Register("digits_only", DigitsOnly)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// StripDiacritics removes combining accent marks ("Écurie" -> "Ecurie").
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify derives a URL-safe slug from a display name: diacritics stripped,
// lowercased, runs of non-alphanumeric characters collapsed to a single
// hyphen, no leading or trailing hyphen. Pure and deterministic; slug
// uniqueness is resolved at publish time, not here.
func Slugify(s string) string {
	s = strings.ToLower(StripDiacritics(s))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// NormalizePhone normalizes a phone number to the French national format on a
// best-effort basis. All characters except digits and a leading "+" are
// stripped; a "+33" or "33" country prefix is rewritten to a leading "0".
// Input that does not look like a 10-digit French number is returned in its
// stripped form rather than rejected.
func NormalizePhone(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range raw {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	p := b.String()

	if strings.HasPrefix(p, "+33") {
		p = "0" + p[3:]
	} else if strings.HasPrefix(p, "33") {
		p = "0" + p[2:]
	}

	// 10-digit numbers starting 01-07 or 09 are well-formed French numbers;
	// anything else passes through stripped.
	return p
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
