package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a combining mark.
var specials = strings.NewReplacer(
	"ı", "i", "ø", "o", "ł", "l", "đ", "d", "ß", "ss", "æ", "ae", "œ", "oe",
)

// Generate creates a URL-friendly slug from name. Accents are stripped, so
// "Café Crème" becomes "cafe-creme" and "Kadın Giyim" becomes "kadin-giyim".
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = specials.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = slugRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Equal reports whether two names or slugs identify the same thing once
// normalised. Catalog lookups use it to match a URL slug against category
// slugs and names.
func Equal(a, b string) bool {
	na := Generate(a)
	return na != "" && na == Generate(b)
}
