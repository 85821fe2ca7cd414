package app

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxTracedQueryLength = 512

var (
	queryLineCommentRegex = regexp.MustCompile(`--[^\n]*`)
	queryWhitespaceRegex  = regexp.MustCompile(`\s+`)
	// Long VALUES tuples from batch inserts collapse to the first row.
	queryValuesTailRegex = regexp.MustCompile(`(VALUES \([^()]*\))(?:, \([^()]*\))+`)
)

// formatDBQueryForTrace renders a query for the db.statement span attribute:
// comments dropped, whitespace collapsed, batch tuples folded, length capped.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(queryLineCommentRegex.ReplaceAllString(query, " "))
	if query == "" {
		return query
	}

	normalized := strings.TrimSpace(queryWhitespaceRegex.ReplaceAllString(query, " "))
	normalized = queryValuesTailRegex.ReplaceAllString(normalized, "$1, ...")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(normalized[cut]) {
		cut--
	}
	return normalized[:cut] + "..."
}
