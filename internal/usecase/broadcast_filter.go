package usecase

import (
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/naming"
)

// BroadcastKeywords corrects provider region tags by channel name.
type BroadcastKeywords struct {
	// ForeignDenylist holds name fragments of foreign-market channels.
	ForeignDenylist []string
	// CompanionMarkers hold name fragments of companion-market editions.
	CompanionMarkers []string
}

type Relevance string

const (
	RelevanceKept           Relevance = "kept"
	RelevanceOutsideRegion  Relevance = "outside_region"
	RelevanceForeignChannel Relevance = "foreign_channel"
	RelevanceCompanion      Relevance = "companion_market"
)

// ClassifyBroadcast applies the region allow-list, then the foreign-market
// denylist, then the companion-market markers.
func ClassifyBroadcast(entry BroadcastEntry, targetRegions []string, keywords BroadcastKeywords) Relevance {
	if !regionAllowed(entry.RegionCode, targetRegions) {
		return RelevanceOutsideRegion
	}
	for _, keyword := range keywords.ForeignDenylist {
		if naming.ContainsPhrase(entry.ChannelName, keyword) {
			return RelevanceForeignChannel
		}
	}
	for _, marker := range keywords.CompanionMarkers {
		if naming.ContainsPhrase(entry.ChannelName, marker) {
			return RelevanceCompanion
		}
	}
	return RelevanceKept
}

// FilterRelevant keeps the entries meant for the target regions. Entries
// repeating an already kept channel are dropped.
func FilterRelevant(entries []BroadcastEntry, targetRegions []string, keywords BroadcastKeywords) []BroadcastEntry {
	out := make([]BroadcastEntry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if ClassifyBroadcast(entry, targetRegions, keywords) != RelevanceKept {
			continue
		}
		key := strings.TrimSpace(entry.ChannelID)
		if key == "" {
			key = naming.Fold(entry.ChannelName)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func regionAllowed(region string, targetRegions []string) bool {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return false
	}
	for _, target := range targetRegions {
		if strings.ToUpper(strings.TrimSpace(target)) == region {
			return true
		}
	}
	return false
}
