package fixture

import (
	"testing"
	"time"
)

func TestMapUpstreamStatus(t *testing.T) {
	tests := []struct {
		code      string
		want      string
		wantKnown bool
	}{
		{code: "NS", want: StatusScheduled, wantKnown: true},
		{code: "tbd", want: StatusScheduled, wantKnown: true},
		{code: "1H", want: StatusLive, wantKnown: true},
		{code: "HT", want: StatusLive, wantKnown: true},
		{code: "FT", want: StatusFinished, wantKnown: true},
		{code: " pen ", want: StatusFinished, wantKnown: true},
		{code: "PST", want: StatusPostponed, wantKnown: true},
		{code: "CANC", want: StatusCancelled, wantKnown: true},
		{code: "ABD", want: StatusCancelled, wantKnown: true},
		{code: "FINISHED", want: StatusFinished, wantKnown: true},
		{code: "XYZ", want: StatusScheduled, wantKnown: false},
		{code: "", want: StatusScheduled, wantKnown: false},
	}

	for _, tc := range tests {
		got, known := MapUpstreamStatus(tc.code)
		if got != tc.want || known != tc.wantKnown {
			t.Fatalf("code %q: expected %s known=%t, got=%s known=%t", tc.code, tc.want, tc.wantKnown, got, known)
		}
	}
}

func TestNormalize_ClearsScoresUnlessPlayed(t *testing.T) {
	scored := Fixture{
		KickoffAt: time.Date(2025, 8, 16, 16, 0, 0, 0, time.FixedZone("BST", 3600)),
		FullTime:  Score{Home: IntPtr(1), Away: IntPtr(0)},
		HalfTime:  Score{Home: IntPtr(0), Away: IntPtr(0)},
		Winner:    WinnerHome,
		Duration:  DurationRegular,
	}

	for _, status := range []string{StatusScheduled, StatusPostponed, StatusCancelled, ""} {
		item := scored
		item.Status = status
		got := item.Normalize()
		if !got.FullTime.IsZero() || !got.HalfTime.IsZero() || got.Winner != "" || got.Duration != "" {
			t.Fatalf("status %q: expected scores cleared, got=%+v", status, got)
		}
	}

	for _, status := range []string{StatusLive, StatusFinished} {
		item := scored
		item.Status = status
		got := item.Normalize()
		if got.FullTime.Home == nil || *got.FullTime.Home != 1 {
			t.Fatalf("status %q: expected score kept, got=%+v", status, got.FullTime)
		}
		if got.KickoffAt.Location() != time.UTC {
			t.Fatalf("expected kickoff in UTC, got=%s", got.KickoffAt.Location())
		}
	}
}

func TestSameContent_IgnoresZoneAndExternalIDs(t *testing.T) {
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	a := Fixture{ID: 1, CompetitionID: 1, HomeTeamID: 2, AwayTeamID: 3, KickoffAt: kickoff, Status: "ns"}
	b := a
	b.ID = 9
	b.Status = StatusScheduled
	b.KickoffAt = kickoff.In(time.FixedZone("CEST", 2*3600))
	b.ExternalIDs = map[string]string{"apifootball": "1"}

	if !a.SameContent(b) {
		t.Fatalf("expected fixtures to have the same content")
	}
	if !a.NaturalKey().Equal(b.NaturalKey()) {
		t.Fatalf("expected equal natural keys")
	}

	b.Matchday = IntPtr(3)
	if a.SameContent(b) {
		t.Fatalf("expected matchday change to be detected")
	}
}

func TestWinnerAndDuration(t *testing.T) {
	if got := WinnerFromScore(Score{Home: IntPtr(1), Away: IntPtr(3)}); got != WinnerAway {
		t.Fatalf("expected %s, got=%s", WinnerAway, got)
	}
	if got := WinnerFromScore(Score{Home: IntPtr(1)}); got != "" {
		t.Fatalf("expected no winner for partial score, got=%s", got)
	}
	if got := DurationFromStatus("aet"); got != DurationExtraTime {
		t.Fatalf("expected %s, got=%s", DurationExtraTime, got)
	}
}

func TestNormalizeStatus_MapsUpstreamCodes(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"FT":        StatusFinished,
		"ft":        StatusFinished,
		"NS":        StatusScheduled,
		"PST":       StatusPostponed,
		"CANC":      StatusCancelled,
		"2H":        StatusLive,
		"finished":  StatusFinished,
		"POSTPONED": StatusPostponed,
		"":          StatusScheduled,
		"unknown":   StatusScheduled,
	}
	for input, want := range tests {
		if got := NormalizeStatus(input); got != want {
			t.Fatalf("input %q: expected %s, got=%s", input, want, got)
		}
	}
	if !IsFinishedStatus("FT") {
		t.Fatalf("expected FT to count as finished")
	}
	if !IsPlayedStatus("HT") {
		t.Fatalf("expected HT to count as played")
	}
}

func TestNormalize_KeepsScoresForUpstreamFinishedCode(t *testing.T) {
	t.Parallel()

	item := Fixture{
		KickoffAt: time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC),
		Status:    "FT",
		FullTime:  Score{Home: IntPtr(2), Away: IntPtr(1)},
		Winner:    WinnerHome,
	}
	got := item.Normalize()
	if got.Status != StatusFinished {
		t.Fatalf("expected status %s, got=%s", StatusFinished, got.Status)
	}
	if got.FullTime.Home == nil || *got.FullTime.Home != 2 {
		t.Fatalf("expected score kept, got=%+v", got.FullTime)
	}
}
