package naming

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "Arsenal FC", want: "arsenal"},
		{in: "AFC Bournemouth", want: "bournemouth"},
		{in: "A.F.C. Bournemouth", want: "bournemouth"},
		{in: "  Brighton &  Hove Albion ", want: "brighton hove albion"},
		{in: "Club Atlético de Madrid", want: "atletico de madrid"},
		{in: "FC Bayern München", want: "bayern munchen"},
		{in: "Nott'm Forest", want: "nottm forest"},
		{in: "1. FC Köln", want: "1 fc koln"},
		{in: "FC", want: "fc"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q): expected %q, got=%q", tc.in, tc.want, got)
		}
	}
}

func TestCanonicalKey_AliasMatchesEitherNameField(t *testing.T) {
	t.Parallel()

	for _, alias := range Aliases() {
		for _, pattern := range alias.Patterns {
			fromLong := CanonicalKey(pattern+" FC", "")
			if fromLong != alias.Key {
				t.Fatalf("long name %q: expected key %q, got=%q", pattern, alias.Key, fromLong)
			}
			fromShort := CanonicalKey("Unrelated Legal Name", pattern)
			if fromShort != alias.Key {
				t.Fatalf("short name %q: expected key %q, got=%q", pattern, alias.Key, fromShort)
			}
		}
	}
}

func TestCanonicalKey_FallsBackToNormalize(t *testing.T) {
	t.Parallel()

	if got := CanonicalKey("Liverpool FC", "Liverpool"); got != "liverpool" {
		t.Fatalf("expected liverpool, got=%q", got)
	}
	if got := CanonicalKey("", "Everton"); got != "everton" {
		t.Fatalf("expected everton from short name, got=%q", got)
	}
}

func TestCanonicalKey_RequiresTokenBoundary(t *testing.T) {
	t.Parallel()

	// "spurs" must not fire inside another word.
	if got := CanonicalKey("Kaspurs United", ""); got != "kaspurs united" {
		t.Fatalf("unexpected alias hit: %q", got)
	}
}

func TestNameKeys(t *testing.T) {
	t.Parallel()

	keys := NameKeys("Wolverhampton Wanderers FC", "Wolves")
	want := []string{"wolves", "wolverhampton wanderers"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got=%v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got=%v", want, keys)
		}
	}
}

func TestCanonicalKey_AliasIsAnchoredToWholeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		long  string
		short string
		want  string
	}{
		{long: "Newcastle United FC", want: "newcastle united"},
		{long: "Newcastle Benfield", want: "newcastle benfield"},
		{long: "Bayern München II", want: "bayern munchen ii"},
		{long: "FC Bayern München", want: "bayern munchen"},
		{long: "Tottenham Hotspur Women", short: "Spurs Women", want: "tottenham hotspur women"},
		{long: "Tottenham Hotspur Women", short: "Spurs", want: "tottenham hotspur women"},
		{long: "West Ham United U21", want: "west ham united u21"},
		{long: "Brighton & Hove Albion", short: "Brighton", want: "brighton hove albion"},
		{long: "Brighton and Hove Albion FC", want: "brighton hove albion"},
		{long: "Inter Miami CF", want: "inter miami"},
		{long: "Rangers FC", want: "rangers"},
	}

	for _, tc := range cases {
		if got := CanonicalKey(tc.long, tc.short); got != tc.want {
			t.Fatalf("CanonicalKey(%q, %q): expected %q, got=%q", tc.long, tc.short, tc.want, got)
		}
	}
}

func TestAliasKeysAreTheirOwnPattern(t *testing.T) {
	t.Parallel()

	for _, alias := range Aliases() {
		if got := CanonicalKey(alias.Key, ""); got != alias.Key {
			t.Fatalf("alias %q: expected key to map to itself, got=%q", alias.Key, got)
		}
	}
}
