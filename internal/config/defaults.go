package config

// Channel-name fragments of foreign-market broadcasters that providers
// sometimes tag with a target region code.
var defaultForeignDenylist = []string{
	"usa",
	"canada",
	"espn",
	"fubo",
	"peacock",
	"nbc",
	"telemundo",
	"bein",
	"supersport",
	"dstv",
	"astro",
	"hotstar",
	"optus",
	"stan sport",
	"tsn",
	"sky sport nz",
}

// Markers of companion-market editions of otherwise relevant channels.
var defaultCompanionMarkers = []string{
	"roi",
	"ireland",
	"republic of ireland",
}

func defaultCompetitions() []CompetitionConfig {
	return []CompetitionConfig{
		{
			Code:               "premier-league",
			Name:               "Premier League",
			Country:            "England",
			Season:             "2024",
			Type:               "league",
			TotalTeams:         20,
			TotalRounds:        38,
			Visible:            true,
			APIFootballLeague:  "39",
			FootballDataCode:   "PL",
			SportMonksLeagueID: "8",
		},
		{
			Code:               "championship",
			Name:               "Championship",
			Country:            "England",
			Season:             "2024",
			Type:               "league",
			TotalTeams:         24,
			TotalRounds:        46,
			Visible:            true,
			APIFootballLeague:  "40",
			FootballDataCode:   "ELC",
			SportMonksLeagueID: "9",
		},
		{
			Code:               "fa-cup",
			Name:               "FA Cup",
			Country:            "England",
			Season:             "2024",
			Type:               "cup",
			Visible:            true,
			APIFootballLeague:  "45",
			FootballDataCode:   "FAC",
			SportMonksLeagueID: "24",
		},
		{
			Code:               "champions-league",
			Name:               "UEFA Champions League",
			Country:            "Europe",
			Season:             "2024",
			Type:               "cup",
			Visible:            true,
			APIFootballLeague:  "2",
			FootballDataCode:   "CL",
			SportMonksLeagueID: "2",
		},
	}
}
