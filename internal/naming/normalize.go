// Package naming canonicalizes club names into comparison keys and URL slugs.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are stripped from either end of a name.
var legalSuffixes = map[string]struct{}{
	"fc":   {},
	"afc":  {},
	"cf":   {},
	"club": {},
	"fk":   {},
	"sc":   {},
}

var letterReplacer = strings.NewReplacer(
	"ß", "ss",
	"ø", "o",
	"æ", "ae",
	"œ", "oe",
	"đ", "d",
	"ł", "l",
	"ı", "i",
)

// Normalize returns the comparison key for a name: lower-cased, diacritics
// folded, punctuation removed, legal suffixes stripped from both ends and
// whitespace collapsed. Aliases are not applied.
func Normalize(name string) string {
	tokens := stripLegalSuffixes(tokenize(name))
	return strings.Join(tokens, " ")
}

// CanonicalKey is Normalize with the alias table applied. An alias applies
// when the whole normalized long or short name equals one of its patterns.
func CanonicalKey(longName, shortName string) string {
	if key, ok := lookupAlias(Normalize(longName), Normalize(shortName)); ok {
		return key
	}
	if key := Normalize(longName); key != "" {
		return key
	}
	return Normalize(shortName)
}

// NameKeys lists every distinct key a club may be known by: the canonical
// key followed by the plain keys of both name fields.
func NameKeys(longName, shortName string) []string {
	keys := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)
	for _, key := range []string{CanonicalKey(longName, shortName), Normalize(longName), Normalize(shortName)} {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

func tokenize(name string) []string {
	folded := fold(strings.ToLower(strings.TrimSpace(name)))
	if folded == "" {
		return nil
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '\'' || r == '’' || r == '`':
			// dropped in place so "A.F.C." and "Nott'm" stay one token
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

func stripLegalSuffixes(tokens []string) []string {
	for len(tokens) > 1 && isLegalSuffix(tokens[0]) {
		tokens = tokens[1:]
	}
	for len(tokens) > 1 && isLegalSuffix(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func isLegalSuffix(token string) bool {
	_, ok := legalSuffixes[token]
	return ok
}

func fold(value string) string {
	value = letterReplacer.Replace(value)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// Fold lower-cases text, strips diacritics and turns punctuation into single
// spaces. Unlike Normalize it keeps every word.
func Fold(text string) string {
	return strings.Join(tokenize(text), " ")
}

// ContainsPhrase reports whether phrase occurs in text starting at a word
// boundary, after folding both.
func ContainsPhrase(text, phrase string) bool {
	return containsWord(Fold(text), Fold(phrase))
}
