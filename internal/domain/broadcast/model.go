package broadcast

const (
	MediumTV        = "tv"
	MediumStreaming = "streaming"
	MediumRadio     = "radio"
	MediumNone      = "none"
)

// NoCoverageChannelID marks a fixture confirmed to have no relevant broadcaster.
const NoCoverageChannelID = "none"

// Broadcast links a fixture to a channel in a region. Keyed by (FixtureID, ChannelID).
type Broadcast struct {
	ID          int64
	FixtureID   int64
	ChannelID   string
	ChannelName string
	RegionCode  string
	Medium      string
	Provider    string
}

func (b Broadcast) IsNoCoverage() bool {
	return b.ChannelID == NoCoverageChannelID
}

// NoCoverage builds the sentinel record for a fixture.
func NoCoverage(fixtureID int64, regionCode, provider string) Broadcast {
	return Broadcast{
		FixtureID:   fixtureID,
		ChannelID:   NoCoverageChannelID,
		ChannelName: "No broadcaster",
		RegionCode:  regionCode,
		Medium:      MediumNone,
		Provider:    provider,
	}
}

func NormalizeMedium(value string) string {
	switch value {
	case MediumTV, MediumStreaming, MediumRadio, MediumNone:
		return value
	case "channel", "tv_channel":
		return MediumTV
	case "stream", "ott":
		return MediumStreaming
	default:
		return MediumTV
	}
}
