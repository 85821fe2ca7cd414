package team

// Team is a club in the canonical store. Slug is unique across all competitions.
type Team struct {
	ID                   int64
	Name                 string
	NormalizedName       string
	Slug                 string
	ShortName            string
	TLA                  string
	CrestURL             string
	Founded              *int
	Country              string
	PrimaryCompetitionID *int64
	ExternalIDs          map[string]string
}

func (t Team) ExternalID(provider string) string {
	if t.ExternalIDs == nil {
		return ""
	}
	return t.ExternalIDs[provider]
}

// MergeObserved fills fields that are empty on t with values from observed.
// Existing non-empty fields are never overwritten. It reports whether
// anything changed.
func (t Team) MergeObserved(observed Team) (Team, bool) {
	changed := false
	fillString := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fillString(&t.ShortName, observed.ShortName)
	fillString(&t.TLA, observed.TLA)
	fillString(&t.CrestURL, observed.CrestURL)
	fillString(&t.Country, observed.Country)
	if t.Founded == nil && observed.Founded != nil {
		v := *observed.Founded
		t.Founded = &v
		changed = true
	}

	cloned := false
	for provider, externalID := range observed.ExternalIDs {
		if externalID == "" || t.ExternalIDs[provider] != "" {
			continue
		}
		if !cloned {
			ids := make(map[string]string, len(t.ExternalIDs)+len(observed.ExternalIDs))
			for k, v := range t.ExternalIDs {
				ids[k] = v
			}
			t.ExternalIDs = ids
			cloned = true
		}
		t.ExternalIDs[provider] = externalID
		changed = true
	}
	return t, changed
}

// Rehome points the team at a new primary competition.
func (t Team) Rehome(competitionID int64) (Team, bool) {
	if t.PrimaryCompetitionID != nil && *t.PrimaryCompetitionID == competitionID {
		return t, false
	}
	id := competitionID
	t.PrimaryCompetitionID = &id
	return t, true
}
