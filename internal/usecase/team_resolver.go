package usecase

import (
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/domain/competition"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/naming"
)

// MatchSource tells how a team was resolved.
type MatchSource string

const (
	MatchNone       MatchSource = ""
	MatchExternalID MatchSource = "external_id"
	MatchName       MatchSource = "name"
	MatchOverride   MatchSource = "override"
)

// TeamCandidate is a team as named by one provider.
type TeamCandidate struct {
	ExternalID string
	Name       string
	ShortName  string
}

func (c TeamCandidate) Key() string {
	return naming.CanonicalKey(c.Name, c.ShortName)
}

// TeamResolver resolves provider team names against the teams of one
// competition. It is built per run and never shared between runs.
type TeamResolver struct {
	provider   string
	overrides  map[string]string
	byKey      map[string]team.Team
	byExternal map[string]team.Team
}

// NewTeamResolver creates an empty resolver. overrides maps the provider's
// team id to a canonical name for clubs normalization cannot repair.
func NewTeamResolver(provider string, overrides map[string]string) *TeamResolver {
	normalized := make(map[string]string, len(overrides))
	for externalID, name := range overrides {
		externalID = strings.TrimSpace(externalID)
		key := naming.CanonicalKey(name, "")
		if externalID == "" || key == "" {
			continue
		}
		normalized[externalID] = key
	}
	return &TeamResolver{
		provider:   provider,
		overrides:  normalized,
		byKey:      make(map[string]team.Team),
		byExternal: make(map[string]team.Team),
	}
}

// Load fills the cache with the teams already associated with the competition.
func (r *TeamResolver) Load(teams []team.Team) {
	for _, item := range teams {
		r.Add(item)
	}
}

// Add appends a team to the cache. Existing entries for the same keys are
// replaced by the newer row.
func (r *TeamResolver) Add(item team.Team) {
	for _, key := range teamKeys(item) {
		r.byKey[key] = item
	}
	if externalID := item.ExternalID(r.provider); externalID != "" {
		r.byExternal[externalID] = item
	}
}

// Link indexes a team under a provider id without storing the id on the team.
func (r *TeamResolver) Link(externalID string, item team.Team) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return
	}
	r.byExternal[externalID] = item
}

// Resolve returns the cached team matching the candidate. Order: stored
// provider id, exact normalized name, manual override by provider id. A
// name or override match is rejected when the cached team already carries
// a different id from the same provider.
func (r *TeamResolver) Resolve(candidate TeamCandidate) (team.Team, MatchSource, bool) {
	externalID := strings.TrimSpace(candidate.ExternalID)
	if externalID != "" {
		if item, ok := r.byExternal[externalID]; ok {
			return item, MatchExternalID, true
		}
	}
	if key := candidate.Key(); key != "" {
		if item, ok := r.byKey[key]; ok && !r.Conflicts(item, externalID) {
			return item, MatchName, true
		}
	}
	if key, ok := r.OverrideKey(externalID); ok {
		if item, found := r.byKey[key]; found && !r.Conflicts(item, externalID) {
			return item, MatchOverride, true
		}
	}
	return team.Team{}, MatchNone, false
}

// Conflicts reports whether item is already linked to another team id of
// the resolver's provider.
func (r *TeamResolver) Conflicts(item team.Team, externalID string) bool {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return false
	}
	stored := item.ExternalID(r.provider)
	return stored != "" && stored != externalID
}

// OverrideKey returns the canonical key configured for a provider team id.
func (r *TeamResolver) OverrideKey(externalID string) (string, bool) {
	if externalID == "" {
		return "", false
	}
	key, ok := r.overrides[externalID]
	return key, ok
}

// Size returns the number of distinct cached teams.
func (r *TeamResolver) Size() int {
	seen := make(map[int64]struct{}, len(r.byKey))
	for _, item := range r.byKey {
		seen[item.ID] = struct{}{}
	}
	return len(seen)
}

func teamKeys(item team.Team) []string {
	keys := make([]string, 0, 2)
	if item.NormalizedName != "" {
		keys = append(keys, item.NormalizedName)
	}
	if key := naming.CanonicalKey(item.Name, item.ShortName); key != "" && key != item.NormalizedName {
		keys = append(keys, key)
	}
	return keys
}

// ConflictDecision says what to do with an existing team seen by an import
// of a competition it does not primarily belong to.
type ConflictDecision struct {
	Rehome      bool
	MergeFields bool
}

// ConflictPolicy is a named, swappable rule for teams that already belong
// to another competition.
type ConflictPolicy struct {
	Name   string
	decide func(competition.Type) ConflictDecision
}

func (p ConflictPolicy) Decide(kind competition.Type) ConflictDecision {
	if p.decide == nil {
		return ConflictDecision{}
	}
	return p.decide(kind)
}

// RehomeLeaguePolicy moves a team to a league that imports it and fills its
// empty fields; cups only reference the team.
var RehomeLeaguePolicy = ConflictPolicy{
	Name: "rehome_league",
	decide: func(kind competition.Type) ConflictDecision {
		if kind == competition.TypeLeague {
			return ConflictDecision{Rehome: true, MergeFields: true}
		}
		return ConflictDecision{}
	},
}

// KeepOriginalPolicy never moves a team but still fills its empty fields.
var KeepOriginalPolicy = ConflictPolicy{
	Name: "keep_original",
	decide: func(competition.Type) ConflictDecision {
		return ConflictDecision{MergeFields: true}
	},
}

var DefaultConflictPolicy = RehomeLeaguePolicy

// ConflictPolicyByName looks up a built-in policy.
func ConflictPolicyByName(name string) (ConflictPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RehomeLeaguePolicy.Name:
		return RehomeLeaguePolicy, true
	case KeepOriginalPolicy.Name:
		return KeepOriginalPolicy, true
	default:
		return ConflictPolicy{}, false
	}
}
