// Package slugify turns note titles into URL-safe slugs.
package slugify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
)

// MaxLength matches the width of the notes.slug column.
const MaxLength = 100

var (
	validSlug = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	hyphens   = regexp.MustCompile(`[-_]+`)
)

// russian is the GOST-style table used for note slugs (я -> ya, х -> h,
// й -> j). Hard and soft signs are dropped.
var russian = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	// Ukrainian
	'є': "ye", 'і': "i", 'ї': "yi", 'ґ': "g",
}

func init() {
	for r, sub := range russian {
		if upper := unicode.ToUpper(r); upper != r {
			russian[upper] = sub
		}
	}
}

// Derive transliterates title to ASCII and hyphenates it.
// The result is lowercase and may be empty when title has no letters or digits.
func Derive(title string) string {
	s := slug.SubstituteRune(strings.TrimSpace(title), russian)
	s = slug.MakeLang(s, "en")
	s = strings.Trim(hyphens.ReplaceAllString(s, "-"), "-")
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Valid reports whether s may be used as a slug as submitted.
// Case is preserved; "Abc" and "abc" are different slugs.
func Valid(s string) bool {
	return len(s) > 0 && len(s) <= MaxLength && validSlug.MatchString(s)
}
