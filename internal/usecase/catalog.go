package usecase

import (
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
)

// CompetitionSpec is the configured description of a competition.
type CompetitionSpec struct {
	Code         string
	Name         string
	Country      string
	Season       string
	Type         competition.Type
	TotalTeams   int
	TotalRounds  int
	Visible      bool
	ProviderRefs map[string]string
}

func (s CompetitionSpec) ProviderRef(provider string) string {
	return strings.TrimSpace(s.ProviderRefs[provider])
}

// CompetitionCatalog resolves competition codes given on the command line.
type CompetitionCatalog interface {
	Lookup(code string) (CompetitionSpec, bool)
	Codes() []string
}

// StaticCatalog is an in-memory catalog.
type StaticCatalog struct {
	items map[string]CompetitionSpec
	order []string
}

func NewStaticCatalog(items []CompetitionSpec) *StaticCatalog {
	c := &StaticCatalog{items: make(map[string]CompetitionSpec, len(items))}
	for _, item := range items {
		code := normalizeCode(item.Code)
		if code == "" {
			continue
		}
		item.Code = code
		if _, exists := c.items[code]; !exists {
			c.order = append(c.order, code)
		}
		c.items[code] = item
	}
	return c
}

func (c *StaticCatalog) Lookup(code string) (CompetitionSpec, bool) {
	item, ok := c.items[normalizeCode(code)]
	return item, ok
}

func (c *StaticCatalog) Codes() []string {
	return append([]string(nil), c.order...)
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
