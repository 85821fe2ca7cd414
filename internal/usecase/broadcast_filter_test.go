package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testKeywords = BroadcastKeywords{
	ForeignDenylist:  []string{"usa", "bein", "espn"},
	CompanionMarkers: []string{"roi", "ireland"},
}

func TestClassifyBroadcast(t *testing.T) {
	t.Parallel()

	targets := []string{"GB", "UK"}
	tests := []struct {
		name  string
		entry BroadcastEntry
		want  Relevance
	}{
		{name: "domestic channel", entry: BroadcastEntry{ChannelName: "Sky Sports Main Event", RegionCode: "GB"}, want: RelevanceKept},
		{name: "region code is case insensitive", entry: BroadcastEntry{ChannelName: "TNT Sports 1", RegionCode: "uk"}, want: RelevanceKept},
		{name: "outside allow-list", entry: BroadcastEntry{ChannelName: "DAZN", RegionCode: "DE"}, want: RelevanceOutsideRegion},
		{name: "missing region", entry: BroadcastEntry{ChannelName: "Sky Sports"}, want: RelevanceOutsideRegion},
		{name: "foreign channel mistagged", entry: BroadcastEntry{ChannelName: "NBC Sports USA", RegionCode: "GB"}, want: RelevanceForeignChannel},
		{name: "foreign keyword with accents and case", entry: BroadcastEntry{ChannelName: "beIN SPORTS Connect", RegionCode: "GB"}, want: RelevanceForeignChannel},
		{name: "companion market edition", entry: BroadcastEntry{ChannelName: "Premier Sports ROI", RegionCode: "GB"}, want: RelevanceCompanion},
		{name: "keyword inside another word is ignored", entry: BroadcastEntry{ChannelName: "Heroic Sports", RegionCode: "GB"}, want: RelevanceKept},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyBroadcast(tc.entry, targets, testKeywords)
			if got != tc.want {
				t.Fatalf("expected %s, got=%s", tc.want, got)
			}
		})
	}
}

func TestFilterRelevant_DropsDuplicateChannels(t *testing.T) {
	t.Parallel()

	got := FilterRelevant([]BroadcastEntry{
		{ChannelID: "60", ChannelName: "Sky Sports Premier League", RegionCode: "GB"},
		{ChannelID: "60", ChannelName: "Sky Sports Premier League", RegionCode: "UK"},
		{ChannelName: "Amazon Prime Video", RegionCode: "GB"},
		{ChannelName: "amazon prime video", RegionCode: "UK"},
		{ChannelID: "77", ChannelName: "ESPN", RegionCode: "GB"},
	}, []string{"GB", "UK"}, testKeywords)

	assert.Len(t, got, 2)
	assert.Equal(t, "60", got[0].ChannelID)
	assert.Equal(t, "Amazon Prime Video", got[1].ChannelName)
}

func TestFilterRelevant_ShrinkingAllowListNeverAddsEntries(t *testing.T) {
	t.Parallel()

	entries := []BroadcastEntry{
		{ChannelID: "1", ChannelName: "Sky Sports", RegionCode: "GB"},
		{ChannelID: "2", ChannelName: "TNT Sports", RegionCode: "UK"},
		{ChannelID: "3", ChannelName: "Premier Sports ROI", RegionCode: "IE"},
		{ChannelID: "4", ChannelName: "RTE 2", RegionCode: "IE"},
		{ChannelID: "5", ChannelName: "Peacock", RegionCode: "US"},
		{ChannelID: "1", ChannelName: "Sky Sports", RegionCode: "UK"},
		{ChannelID: "6", ChannelName: "BBC iPlayer", RegionCode: "GB"},
	}
	regions := []string{"GB", "UK", "IE", "US"}

	// Every allow-list is a bit mask over regions; dropping any region must
	// not grow the result.
	for mask := 0; mask < 1<<len(regions); mask++ {
		allowed := regionsFromMask(regions, mask)
		full := len(FilterRelevant(entries, allowed, testKeywords))
		for bit := 0; bit < len(regions); bit++ {
			if mask&(1<<bit) == 0 {
				continue
			}
			reduced := len(FilterRelevant(entries, regionsFromMask(regions, mask&^(1<<bit)), testKeywords))
			if reduced > full {
				t.Fatalf("expected removing %s from %v to not add entries, got %d > %d", regions[bit], allowed, reduced, full)
			}
		}
	}
}

func regionsFromMask(regions []string, mask int) []string {
	out := make([]string, 0, len(regions))
	for i, region := range regions {
		if mask&(1<<i) != 0 {
			out = append(out, region)
		}
	}
	return out
}
