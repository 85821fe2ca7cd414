package competition

import "strings"

type Type string

const (
	TypeLeague Type = "league"
	TypeCup    Type = "cup"
)

func ParseType(value string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeLeague:
		return TypeLeague, true
	case TypeCup:
		return TypeCup, true
	default:
		return "", false
	}
}

// Competition is a league or cup season in the canonical store.
type Competition struct {
	ID          int64
	Code        string
	Name        string
	Slug        string
	Country     string
	Season      string
	Type        Type
	TotalTeams  int
	TotalRounds int
	IsVisible   bool
	ExternalIDs map[string]string
}

func (c Competition) ExternalID(provider string) string {
	if c.ExternalIDs == nil {
		return ""
	}
	return c.ExternalIDs[provider]
}
