// Package slug derives URL path segments from display names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into a base letter plus a combining mark.
var transliterations = strings.NewReplacer(
	"ð", "d",
	"þ", "th",
	"æ", "ae",
	"ø", "o",
	"œ", "oe",
	"ß", "ss",
	"ł", "l",
)

var reserved = map[string]struct{}{
	"user":    {},
	"admin":   {},
	"login":   {},
	"logout":  {},
	"signup":  {},
	"delete":  {},
	"thanks":  {},
	"healthz": {},
	"readyz":  {},
	"metrics": {},
	"static":  {},
}

// Make returns the lowercase ASCII slug for name. Accented letters lose their
// marks, runs of anything other than [a-z0-9] collapse into one hyphen, and
// leading or trailing hyphens are dropped. The result may be empty.
func Make(name string) string {
	lowered := transliterations.Replace(strings.ToLower(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Reserved reports whether s collides with a fixed route segment.
func Reserved(s string) bool {
	_, ok := reserved[s]
	return ok
}
