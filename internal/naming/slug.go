package naming

import (
	"strconv"
	"strings"
)

// slugOverrides pins slugs for names whose generic slug is ambiguous or
// unwieldy. Keyed by Normalize output.
var slugOverrides = map[string]string{
	"wolverhampton wanderers": "wolves",
	"paris saint germain":     "psg",
	"internazionale milano":   "inter",
	"bayern munchen":          "bayern-munich",
	"brighton hove albion":    "brighton",
	"manchester united":       "man-utd",
	"manchester city":         "man-city",
}

const fallbackSlug = "team"

// Slug derives the URL slug of a club name.
func Slug(name string) string {
	key := Normalize(name)
	if override, ok := slugOverrides[key]; ok {
		return override
	}
	return joinSlug(strings.Fields(key))
}

// TextSlug slugs arbitrary text without club-specific rules.
func TextSlug(text string) string {
	return joinSlug(tokenize(text))
}

// UniqueSlug returns base when it is free, otherwise base suffixed with the
// new entity's id. The result depends only on its inputs.
func UniqueSlug(base string, id int64, taken func(string) bool) string {
	if base == "" {
		base = fallbackSlug
	}
	if taken == nil || !taken(base) {
		return base
	}
	return base + "-" + strconv.FormatInt(id, 10)
}

func joinSlug(tokens []string) string {
	if len(tokens) == 0 {
		return fallbackSlug
	}
	return strings.Join(tokens, "-")
}
