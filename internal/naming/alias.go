package naming

import "strings"

// Alias maps the complete names of a club whose common name differs
// structurally from its legal name to one canonical key. Patterns are
// compared against the whole normalized name, so legal suffixes such as
// "FC" may surround a pattern but nothing else may.
type Alias struct {
	Key      string
	Patterns []string
}

var aliases = []Alias{
	{Key: "wolves", Patterns: []string{"wolves", "wolverhampton", "wolverhampton wanderers"}},
	{Key: "nottingham forest", Patterns: []string{"nottingham forest", "nottingham", "nottm forest", "nott m forest"}},
	{Key: "manchester united", Patterns: []string{"manchester united", "manchester utd", "man utd", "man united"}},
	{Key: "manchester city", Patterns: []string{"manchester city", "man city"}},
	{Key: "tottenham hotspur", Patterns: []string{"tottenham hotspur", "tottenham", "spurs"}},
	{Key: "brighton hove albion", Patterns: []string{"brighton hove albion", "brighton and hove albion", "brighton hove", "brighton"}},
	{Key: "west ham united", Patterns: []string{"west ham united", "west ham utd", "west ham"}},
	{Key: "west bromwich albion", Patterns: []string{"west bromwich albion", "west bromwich", "west brom"}},
	{Key: "newcastle united", Patterns: []string{"newcastle united", "newcastle utd", "newcastle"}},
	{Key: "sheffield united", Patterns: []string{"sheffield united", "sheffield utd"}},
	{Key: "queens park rangers", Patterns: []string{"queens park rangers", "qpr"}},
	{Key: "paris saint germain", Patterns: []string{"paris saint germain", "paris st germain", "paris sg", "psg"}},
	{Key: "internazionale", Patterns: []string{"internazionale", "internazionale milano", "inter milan", "inter"}},
	{Key: "atletico madrid", Patterns: []string{"atletico madrid", "atletico de madrid", "atl madrid"}},
	{Key: "bayern munchen", Patterns: []string{"bayern munchen", "bayern munich", "bayern"}},
	{Key: "borussia monchengladbach", Patterns: []string{"borussia monchengladbach", "vfl borussia monchengladbach", "monchengladbach", "mgladbach", "gladbach"}},
}

// squadQualifiers mark a second side of a club. A name carrying one never
// takes an alias, so a reserve or women's side keeps its own key.
var squadQualifiers = map[string]struct{}{
	"women":     {},
	"womens":    {},
	"ladies":    {},
	"feminine":  {},
	"femenino":  {},
	"femminile": {},
	"frauen":    {},
	"ii":        {},
	"iii":       {},
	"reserves":  {},
	"academy":   {},
	"youth":     {},
}

var aliasByName = buildAliasIndex(aliases)

func buildAliasIndex(items []Alias) map[string]string {
	out := make(map[string]string, len(items)*4)
	for _, item := range items {
		for _, pattern := range item.Patterns {
			out[pattern] = item.Key
		}
	}
	return out
}

func lookupAlias(longKey, shortKey string) (string, bool) {
	if hasSquadQualifier(longKey) || hasSquadQualifier(shortKey) {
		return "", false
	}
	if key, ok := aliasByName[longKey]; ok {
		return key, true
	}
	if key, ok := aliasByName[shortKey]; ok {
		return key, true
	}
	return "", false
}

func hasSquadQualifier(key string) bool {
	tokens := strings.Fields(key)
	for i, token := range tokens {
		if _, ok := squadQualifiers[token]; ok {
			return true
		}
		if isAgeGroup(token) {
			return true
		}
		if token == "b" && i == len(tokens)-1 && i > 0 {
			return true
		}
	}
	return false
}

// isAgeGroup matches tokens such as "u21" or "u18".
func isAgeGroup(token string) bool {
	if len(token) < 2 || len(token) > 3 || token[0] != 'u' {
		return false
	}
	for _, r := range token[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// containsWord reports whether pattern occurs in key starting at a token
// boundary, so "psg" does not fire inside an unrelated word.
func containsWord(key, pattern string) bool {
	if key == "" || pattern == "" {
		return false
	}
	offset := 0
	for {
		idx := strings.Index(key[offset:], pattern)
		if idx < 0 {
			return false
		}
		start := offset + idx
		if start == 0 || key[start-1] == ' ' {
			return true
		}
		offset = start + 1
	}
}

// Aliases returns a copy of the alias table.
func Aliases() []Alias {
	out := make([]Alias, len(aliases))
	for i, item := range aliases {
		out[i] = Alias{Key: item.Key, Patterns: append([]string(nil), item.Patterns...)}
	}
	return out
}
