package fixture

import "strings"

// upstreamStatuses maps master-data short status codes to the internal enumeration.
var upstreamStatuses = map[string]string{
	"TBD":  StatusScheduled,
	"NS":   StatusScheduled,
	"1H":   StatusLive,
	"HT":   StatusLive,
	"2H":   StatusLive,
	"ET":   StatusLive,
	"BT":   StatusLive,
	"P":    StatusLive,
	"SUSP": StatusLive,
	"INT":  StatusLive,
	"LIVE": StatusLive,
	"FT":   StatusFinished,
	"AET":  StatusFinished,
	"PEN":  StatusFinished,
	"AWD":  StatusFinished,
	"WO":   StatusFinished,
	"PST":  StatusPostponed,
	"CANC": StatusCancelled,
	"ABD":  StatusCancelled,
}

// MapUpstreamStatus converts a provider status code. The boolean is false
// when the code is unknown, in which case the fixture is treated as scheduled.
func MapUpstreamStatus(code string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(code))
	if status, ok := upstreamStatuses[key]; ok {
		return status, true
	}
	switch key {
	case StatusScheduled, StatusLive, StatusFinished, StatusCancelled, StatusPostponed:
		return key, true
	}
	return StatusScheduled, false
}

// DurationFromStatus derives the match-duration class from a finished status code.
func DurationFromStatus(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "AET":
		return DurationExtraTime
	case "PEN":
		return DurationPenalties
	case "FT":
		return DurationRegular
	default:
		return ""
	}
}

// WinnerFromScore derives the winner designation from a full-time score.
func WinnerFromScore(score Score) string {
	if score.Home == nil || score.Away == nil {
		return ""
	}
	switch {
	case *score.Home > *score.Away:
		return WinnerHome
	case *score.Home < *score.Away:
		return WinnerAway
	default:
		return WinnerDraw
	}
}
