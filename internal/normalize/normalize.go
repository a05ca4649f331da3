// Package normalize turns raw operator-typed text into comparison keys.
//
// Historical records carry sector/group/person identifiers as free text
// entered by hand over years, so every comparison in the reconciler, the
// import tool and the migration bridge goes through these functions instead
// of comparing raw strings.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// unitPrefixes are the known badge-number prefixes, ordered longest-first so
// that "HABA-12" is never truncated by the shorter "HAB" alternative.
var unitPrefixes = []string{"HABA", "HAB", "A"}

// Key folds text into a comparison key: lower-case, NFD decomposition with
// combining marks removed, surrounding whitespace trimmed. Two strings name
// the same identity iff their keys are equal.
func Key(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// NumericID reduces a badge or sector identifier to its digits: upper-cases,
// strips at most one leading unit prefix plus optional separators, then drops
// every remaining non-digit. Reconciles "HAB-00123", "A 45" and bare "77"
// against stored numeric identifiers.
func NumericID(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, prefix := range unitPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimLeft(s[len(prefix):], "- \t")
			break
		}
	}
	return Digits(s)
}

// Digits strips everything but decimal digits. Used for phone numbers and as
// the final pass of NumericID.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
