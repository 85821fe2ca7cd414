package sportmonks

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/external/upstreamhttp"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ProviderName           = "sportmonks"
	defaultBaseURL         = "https://api.sportmonks.com/v3"
	defaultIncludeFixture  = "participants"
	defaultIncludeStations = "tvStations.tvStation;tvStations.country"
	maxBodyBytes           = 6 << 20
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads fixtures and TV station listings. Each method makes exactly
// one request; retries belong to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

var _ usecase.BroadcastProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		// the caller's client is shared; defaults go on a copy
		clone := *cfg.HTTPClient
		httpClient = &clone
	} else {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		logger:     logger.With("provider", ProviderName),
		breaker:    resilience.NewCircuitBreaker(resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)),
	}
}

func (c *Client) Name() string {
	return ProviderName
}

// FetchFixtures lists one page of league fixtures kicking off in [from, to].
func (c *Client) FetchFixtures(ctx context.Context, leagueRef string, from, to time.Time, page int) (usecase.Page[usecase.ExternalBroadcastFixture], error) {
	if page < 1 {
		page = 1
	}
	path := "/football/fixtures/between/" + from.UTC().Format(time.DateOnly) + "/" + to.UTC().Format(time.DateOnly)
	query := url.Values{
		"include": {defaultIncludeFixture},
		"filters": {"fixtureLeagues:" + leagueRef},
		"page":    {strconv.Itoa(page)},
	}

	var envelope fixturesEnvelope
	raw, err := c.doJSON(ctx, path, query, &envelope)
	if err != nil {
		return usecase.Page[usecase.ExternalBroadcastFixture]{}, crerr.Wrapf(err, "fetch fixtures league=%s page=%d", leagueRef, page)
	}

	items := make([]usecase.ExternalBroadcastFixture, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.ID <= 0 {
			continue
		}
		kickoff := parseProviderDateTime(item.StartingAt)
		if kickoff == nil {
			c.logger.WarnContext(ctx, "skip fixture with unparseable kickoff", "fixture_id", item.ID, "starting_at", item.StartingAt)
			continue
		}
		home, away := resolveFixtureParticipants(item.Participants)
		if kickoff.Before(from) || kickoff.After(to) {
			continue
		}
		items = append(items, usecase.ExternalBroadcastFixture{
			ExternalID: strconv.FormatInt(item.ID, 10),
			HomeName:   home,
			AwayName:   away,
			KickoffAt:  *kickoff,
		})
	}

	out := usecase.Page[usecase.ExternalBroadcastFixture]{
		Items:      items,
		Page:       page,
		TotalPages: page,
		Raw:        raw,
	}
	if envelope.Pagination.HasMore {
		out.TotalPages = page + 1
	}
	return out, nil
}

// FetchBroadcasts lists the TV stations of one fixture with their regions.
func (c *Client) FetchBroadcasts(ctx context.Context, fixtureExternalID string) (usecase.Page[usecase.BroadcastEntry], error) {
	fixtureExternalID = strings.TrimSpace(fixtureExternalID)
	if fixtureExternalID == "" {
		return usecase.Page[usecase.BroadcastEntry]{}, crerr.Mark(crerr.New("fixture id is required"), usecase.ErrUpstreamPermanent)
	}
	path := "/football/fixtures/" + url.PathEscape(fixtureExternalID)
	query := url.Values{"include": {defaultIncludeStations}}

	var envelope fixtureStationsEnvelope
	raw, err := c.doJSON(ctx, path, query, &envelope)
	if err != nil {
		return usecase.Page[usecase.BroadcastEntry]{}, crerr.Wrapf(err, "fetch tv stations fixture=%s", fixtureExternalID)
	}

	items := make([]usecase.BroadcastEntry, 0, len(envelope.Data.TVStations))
	for _, row := range envelope.Data.TVStations {
		name := strings.TrimSpace(row.TVStation.Name)
		if name == "" {
			continue
		}
		channelID := ""
		if row.TVStationID > 0 {
			channelID = strconv.FormatInt(row.TVStationID, 10)
		}
		items = append(items, usecase.BroadcastEntry{
			ChannelID:   channelID,
			ChannelName: name,
			RegionCode:  strings.ToUpper(strings.TrimSpace(row.Country.ISO2)),
			Medium:      strings.ToLower(strings.TrimSpace(row.TVStation.Type)),
		})
	}
	return usecase.Page[usecase.BroadcastEntry]{
		Items:      items,
		Page:       1,
		TotalPages: 1,
		Raw:        raw,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values, target any) ([]byte, error) {
	values := url.Values{}
	for key, items := range query {
		values[key] = append([]string(nil), items...)
	}
	values.Set("api_token", c.token)
	fullURL := c.baseURL + path + "?" + values.Encode()

	var raw []byte
	err := upstreamhttp.Guard(ctx, c.breaker, c.logger, ProviderName, func() error {
		body, err := c.executeRequest(ctx, fullURL)
		if err != nil {
			return err
		}
		if err := sonic.Unmarshal(body, target); err != nil {
			return upstreamhttp.DecodeError(ProviderName, err)
		}
		raw = body
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "sportmonks request failed", "url", redactAPIURL(fullURL), "error", err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Mark(crerr.Newf("build request: %s", sanitizeSensitiveText(err.Error(), c.token)), usecase.ErrUpstreamPermanent)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstreamhttp.TransportError(ctx, ProviderName, "send request", crerr.New(sanitizeSensitiveText(err.Error(), c.token)), c.token)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return nil, upstreamhttp.TransportError(ctx, ProviderName, "read response body", err, c.token)
	}
	body := append([]byte(nil), buf.B...)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamhttp.StatusError(ProviderName, resp.StatusCode, []byte(sanitizeSensitiveText(string(body), c.token)), c.token)
	}
	return body, nil
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return apiTokenParamRegex.ReplaceAllString(rawURL, "api_token=REDACTED")
	}
	query := parsed.Query()
	if query.Has("api_token") {
		query.Set("api_token", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.DateTime,
		time.RFC3339,
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

// resolveFixtureParticipants orders participants by their home/away meta,
// falling back to list order.
func resolveFixtureParticipants(participants []fixtureParticipant) (string, string) {
	var home, away string
	for _, participant := range participants {
		switch strings.ToLower(strings.TrimSpace(participant.Meta.Location)) {
		case "home":
			home = participant.Name
		case "away":
			away = participant.Name
		}
	}
	if home == "" && len(participants) > 0 {
		home = participants[0].Name
	}
	if away == "" && len(participants) > 1 {
		away = participants[1].Name
	}
	return strings.TrimSpace(home), strings.TrimSpace(away)
}

type pagination struct {
	CurrentPage int  `json:"current_page"`
	HasMore     bool `json:"has_more"`
}

type fixturesEnvelope struct {
	Data       []fixtureItem `json:"data"`
	Pagination pagination    `json:"pagination"`
}

type fixtureItem struct {
	ID           int64                `json:"id"`
	StartingAt   string               `json:"starting_at"`
	Participants []fixtureParticipant `json:"participants"`
}

type fixtureParticipant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Meta struct {
		Location string `json:"location"`
	} `json:"meta"`
}

type fixtureStationsEnvelope struct {
	Data struct {
		ID         int64            `json:"id"`
		TVStations []fixtureStation `json:"tvstations"`
	} `json:"data"`
}

type fixtureStation struct {
	TVStationID int64 `json:"tvstation_id"`
	CountryID   int64 `json:"country_id"`
	TVStation   struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"tvstation"`
	Country struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		ISO2 string `json:"iso2"`
	} `json:"country"`
}
