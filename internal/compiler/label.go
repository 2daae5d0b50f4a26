package compiler

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalizeLabel applies NFC, folds line breaks to spaces and trims.
func normalizeLabel(s string) string {
	s = norm.NFC.String(s)
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// ToSymbol turns free text into a logic-atom symbol: punctuation is dropped,
// whitespace runs become "_", and an empty result becomes "unnamed".
// ToSymbol(ToSymbol(s)) == ToSymbol(s).
func ToSymbol(s string) string {
	s = normalizeLabel(s)

	var b strings.Builder
	inSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			inSpace = true
		case unicode.IsLetter(r), unicode.IsNumber(r), r == '_':
			if inSpace {
				b.WriteByte('_')
				inSpace = false
			}
			b.WriteRune(r)
		}
	}
	if inSpace {
		b.WriteByte('_')
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	// Dropping punctuation can leave composable neighbours.
	return norm.NFC.String(b.String())
}

// SplitActorPredicate splits a decision label such as
// "AIsystem generatesContent?" into actor "AIsystem" and predicate
// "generatesContent". Trailing question marks are dropped and the remainder
// after the first whitespace run is concatenated without spaces.
//
// A label with fewer than two words yields the placeholder actor, the symbol
// of the label as predicate, and ok == false.
func SplitActorPredicate(label, placeholder string) (actor, predicate string, ok bool) {
	s := strings.TrimRightFunc(normalizeLabel(label), func(r rune) bool {
		return r == '?' || unicode.IsSpace(r)
	})
	return splitFirstWord(s, placeholder)
}

// SplitActorAction splits an obligation label such as
// "AIprovider markContent" into actor and action name, the same way as
// SplitActorPredicate but keeping question marks.
func SplitActorAction(label, placeholder string) (actor, name string, ok bool) {
	return splitFirstWord(normalizeLabel(label), placeholder)
}

func splitFirstWord(s, placeholder string) (string, string, bool) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return placeholder, ToSymbol(s), false
	}
	return fields[0], strings.Join(fields[1:], ""), true
}
