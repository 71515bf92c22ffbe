// Package naming derives filesystem-safe identifiers from free-form text.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented characters and drops the combining marks,
// so "café" slugifies to "cafe".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts text into a lowercase hyphen-separated identifier no
// longer than maxLen. Runs of non-alphanumeric characters collapse to a
// single hyphen. maxLen <= 0 means unlimited.
func Slugify(text string, maxLen int) string {
	ascii, _, err := transform.String(stripMarks, text)
	if err != nil {
		ascii = text
	}

	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(ascii) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	return slug
}

// DisplayName turns a slug or snake_case identifier into a human-readable
// title, e.g. "pr_review" becomes "Pr Review".
func DisplayName(name string) string {
	spaced := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(spaced)
}
