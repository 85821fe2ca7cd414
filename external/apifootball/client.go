package apifootball

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/external/upstreamhttp"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ProviderName   = "apifootball"
	defaultBaseURL = "https://v3.football.api-sports.io"
	maxBodyBytes   = 8 << 20
)

var matchdayRegex = regexp.MustCompile(`(?i)regular season\s*-\s*(\d+)`)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads competition master data. Each method makes exactly one
// request; retries belong to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

var _ usecase.MasterDataProvider = (*Client)(nil)

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

// FetchTeams lists the teams of a league season. The endpoint is not
// paginated, so any page after the first is empty.
func (c *Client) FetchTeams(ctx context.Context, competitionRef, season string, page int) (usecase.Page[usecase.ExternalTeam], error) {
	if page > 1 {
		return usecase.Page[usecase.ExternalTeam]{Page: page, TotalPages: 1}, nil
	}

	var envelope teamsEnvelope
	raw, err := c.get(ctx, "/teams", url.Values{
		"league": {competitionRef},
		"season": {season},
	}, &envelope)
	if err != nil {
		return usecase.Page[usecase.ExternalTeam]{}, err
	}

	items := make([]usecase.ExternalTeam, 0, len(envelope.Response))
	for _, row := range envelope.Response {
		if row.Team.ID <= 0 {
			continue
		}
		// The endpoint carries no short name; code is the three-letter TLA.
		items = append(items, usecase.ExternalTeam{
			ExternalID: strconv.FormatInt(row.Team.ID, 10),
			Name:       strings.TrimSpace(row.Team.Name),
			TLA:        strings.ToUpper(strings.TrimSpace(row.Team.Code)),
			CrestURL:   row.Team.Logo,
			Country:    row.Team.Country,
			Founded:    row.Team.Founded,
		})
	}
	return usecase.Page[usecase.ExternalTeam]{
		Items:      items,
		Page:       1,
		TotalPages: 1,
		Raw:        raw,
	}, nil
}

func (c *Client) FetchFixtures(ctx context.Context, competitionRef, season string, page int) (usecase.Page[usecase.ExternalFixture], error) {
	if page > 1 {
		return usecase.Page[usecase.ExternalFixture]{Page: page, TotalPages: 1}, nil
	}

	var envelope fixturesEnvelope
	raw, err := c.get(ctx, "/fixtures", url.Values{
		"league": {competitionRef},
		"season": {season},
	}, &envelope)
	if err != nil {
		return usecase.Page[usecase.ExternalFixture]{}, err
	}

	items := make([]usecase.ExternalFixture, 0, len(envelope.Response))
	for _, row := range envelope.Response {
		if row.Fixture.ID <= 0 {
			continue
		}
		kickoff, ok := parseKickoff(row.Fixture.Date, row.Fixture.Timestamp)
		if !ok {
			c.logger.WarnContext(ctx, "skip fixture with unparseable kickoff", "fixture_id", row.Fixture.ID, "date", row.Fixture.Date)
			continue
		}
		items = append(items, usecase.ExternalFixture{
			ExternalID:     strconv.FormatInt(row.Fixture.ID, 10),
			HomeExternalID: formatID(row.Teams.Home.ID),
			HomeName:       strings.TrimSpace(row.Teams.Home.Name),
			AwayExternalID: formatID(row.Teams.Away.ID),
			AwayName:       strings.TrimSpace(row.Teams.Away.Name),
			KickoffAt:      kickoff,
			StatusCode:     row.Fixture.Status.Short,
			Matchday:       parseMatchday(row.League.Round),
			Round:          strings.TrimSpace(row.League.Round),
			Stage:          stageFromRound(row.League.Round),
			Venue:          strings.TrimSpace(row.Fixture.Venue.Name),
			FullTime:       fixture.Score{Home: row.Score.FullTime.Home, Away: row.Score.FullTime.Away},
			HalfTime:       fixture.Score{Home: row.Score.HalfTime.Home, Away: row.Score.HalfTime.Away},
		})
	}
	return usecase.Page[usecase.ExternalFixture]{
		Items:      items,
		Page:       1,
		TotalPages: 1,
		Raw:        raw,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target providerEnvelope) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var raw []byte
	err := upstreamhttp.Guard(ctx, c.breaker, c.logger, ProviderName, func() error {
		body, err := c.execute(ctx, fullURL)
		if err != nil {
			return err
		}
		if err := sonic.Unmarshal(body, target); err != nil {
			return upstreamhttp.DecodeError(ProviderName, err)
		}
		if err := target.providerError(); err != nil {
			return err
		}
		raw = body
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "apifootball request failed", "path", path, "error", err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "build apifootball request"), usecase.ErrUpstreamPermanent)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-apisports-key", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstreamhttp.TransportError(ctx, ProviderName, "send request", err, c.token)
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
		return nil, upstreamhttp.StatusError(ProviderName, resp.StatusCode, body, c.token)
	}
	return body, nil
}

// providerEnvelope exposes the errors block API-Football returns with a
// 200 status.
type providerEnvelope interface {
	providerError() error
}

type envelopeErrors struct {
	Errors any `json:"errors"`
}

func (e envelopeErrors) providerError() error {
	messages := make(map[string]string)
	switch typed := e.Errors.(type) {
	case map[string]any:
		for key, value := range typed {
			messages[strings.ToLower(key)] = strings.TrimSpace(toString(value))
		}
	case []any:
		for i, value := range typed {
			messages[strconv.Itoa(i)] = strings.TrimSpace(toString(value))
		}
	}
	if len(messages) == 0 {
		return nil
	}

	parts := make([]string, 0, len(messages))
	for key, msg := range messages {
		parts = append(parts, key+": "+msg)
	}
	sort.Strings(parts)
	err := crerr.Newf("apifootball rejected request: %s", strings.Join(parts, "; "))
	if _, limited := messages["ratelimit"]; limited {
		return crerr.Mark(err, usecase.ErrUpstreamTransient)
	}
	return crerr.Mark(err, usecase.ErrUpstreamPermanent)
}

type teamsEnvelope struct {
	envelopeErrors
	Response []teamRow `json:"response"`
}

type teamRow struct {
	Team struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Code    string `json:"code"`
		Country string `json:"country"`
		Founded *int   `json:"founded"`
		Logo    string `json:"logo"`
	} `json:"team"`
}

type fixturesEnvelope struct {
	envelopeErrors
	Response []fixtureRow `json:"response"`
}

type fixtureRow struct {
	Fixture struct {
		ID        int64  `json:"id"`
		Date      string `json:"date"`
		Timestamp int64  `json:"timestamp"`
		Venue     struct {
			Name string `json:"name"`
		} `json:"venue"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		Round string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home teamRef `json:"home"`
		Away teamRef `json:"away"`
	} `json:"teams"`
	Score struct {
		HalfTime scorePair `json:"halftime"`
		FullTime scorePair `json:"fulltime"`
	} `json:"score"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type scorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

func parseKickoff(date string, timestamp int64) (time.Time, bool) {
	if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(date)); err == nil {
		return parsed.UTC(), true
	}
	if timestamp > 0 {
		return time.Unix(timestamp, 0).UTC(), true
	}
	return time.Time{}, false
}

func parseMatchday(round string) *int {
	match := matchdayRegex.FindStringSubmatch(round)
	if len(match) != 2 {
		return nil
	}
	value, err := strconv.Atoi(match[1])
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}

func stageFromRound(round string) string {
	round = strings.TrimSpace(round)
	if round == "" || matchdayRegex.MatchString(round) {
		return "REGULAR_SEASON"
	}
	return strings.ToUpper(strings.Join(strings.Fields(round), "_"))
}

func formatID(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func toString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case nil:
		return ""
	default:
		encoded, err := sonic.MarshalString(typed)
		if err != nil {
			return ""
		}
		return encoded
	}
}
