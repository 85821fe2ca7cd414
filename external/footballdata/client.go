package footballdata

import (
	"context"
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
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ProviderName   = "footballdata"
	defaultBaseURL = "https://api.football-data.org/v4"
	defaultTimeout = 20 * time.Second
	maxBodyBytes   = 8 << 20
)

type ClientConfig struct {
	// HTTPClient is mainly for tests; a nil client gets a pooled default.
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads finished match results. Each method makes exactly one
// request; retries belong to the caller.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	token      string
	timeout    time.Duration
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	tracer     trace.Tracer
}

var _ usecase.ResultsProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                ProviderName,
			MaxConnsPerHost:     4,
			MaxResponseBodySize: maxBodyBytes,
			ReadTimeout:         defaultTimeout,
			WriteTimeout:        defaultTimeout,
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		timeout:    timeout,
		logger:     logger.With("provider", ProviderName),
		breaker:    resilience.NewCircuitBreaker(resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)),
		tracer:     otel.Tracer("github.com/riskibarqy/matchday-sync/external/footballdata"),
	}
}

func (c *Client) Name() string {
	return ProviderName
}

// FetchFinishedMatches lists finished matches of a competition dated within
// [from, to]. The endpoint returns the whole window in one page.
func (c *Client) FetchFinishedMatches(ctx context.Context, competitionRef string, from, to time.Time) (usecase.Page[usecase.ExternalResult], error) {
	competitionRef = strings.ToUpper(strings.TrimSpace(competitionRef))
	if competitionRef == "" {
		return usecase.Page[usecase.ExternalResult]{}, crerr.Mark(crerr.New("competition code is required"), usecase.ErrUpstreamPermanent)
	}

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("status", "FINISHED")
	args.Set("dateFrom", from.UTC().Format(time.DateOnly))
	args.Set("dateTo", to.UTC().Format(time.DateOnly))
	fullURL := c.baseURL + "/competitions/" + competitionRef + "/matches?" + args.String()

	var envelope matchesEnvelope
	raw, err := c.doJSON(ctx, fullURL, &envelope)
	if err != nil {
		return usecase.Page[usecase.ExternalResult]{}, crerr.Wrapf(err, "fetch finished matches competition=%s", competitionRef)
	}

	items := make([]usecase.ExternalResult, 0, len(envelope.Matches))
	for _, match := range envelope.Matches {
		if match.ID <= 0 || !strings.EqualFold(match.Status, "FINISHED") {
			continue
		}
		kickoff, err := time.Parse(time.RFC3339, strings.TrimSpace(match.UTCDate))
		if err != nil {
			c.logger.WarnContext(ctx, "skip match with unparseable kickoff", "match_id", match.ID, "utc_date", match.UTCDate)
			continue
		}
		items = append(items, usecase.ExternalResult{
			ExternalID:    strconv.FormatInt(match.ID, 10),
			HomeName:      strings.TrimSpace(match.HomeTeam.Name),
			HomeShortName: strings.TrimSpace(match.HomeTeam.ShortName),
			AwayName:      strings.TrimSpace(match.AwayTeam.Name),
			AwayShortName: strings.TrimSpace(match.AwayTeam.ShortName),
			KickoffAt:     kickoff.UTC(),
			FullTime:      fixture.Score{Home: match.Score.FullTime.Home, Away: match.Score.FullTime.Away},
			HalfTime:      fixture.Score{Home: match.Score.HalfTime.Home, Away: match.Score.HalfTime.Away},
			Winner:        strings.ToUpper(strings.TrimSpace(match.Score.Winner)),
			Duration:      strings.ToUpper(strings.TrimSpace(match.Score.Duration)),
		})
	}
	return usecase.Page[usecase.ExternalResult]{
		Items:      items,
		Page:       1,
		TotalPages: 1,
		Raw:        raw,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, fullURL string, target any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "footballdata.get", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.url", fullURL))

	var raw []byte
	err := upstreamhttp.Guard(ctx, c.breaker, c.logger, ProviderName, func() error {
		body, status, err := c.execute(ctx, fullURL)
		span.SetAttributes(attribute.Int("http.status_code", status))
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
		span.RecordError(err)
		span.SetStatus(codes.Error, "footballdata request failed")
		c.logger.WarnContext(ctx, "footballdata request failed", "url", fullURL, "error", err)
		return nil, err
	}
	return raw, nil
}

// execute bounds the request by the context deadline, since fasthttp has
// no context support.
func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, crerr.Wrap(err, "footballdata request")
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, 0, crerr.Mark(crerr.New("footballdata request deadline already passed"), usecase.ErrUpstreamTransient)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Token", c.token)

	if err := c.httpClient.DoTimeout(req, resp, timeout); err != nil {
		return nil, 0, upstreamhttp.TransportError(ctx, ProviderName, "send request", err, c.token)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	if remaining := string(resp.Header.Peek("X-Requests-Available-Minute")); remaining != "" {
		c.logger.DebugContext(ctx, "footballdata request budget", "available_minute", remaining)
	}
	if status < 200 || status >= 300 {
		return nil, status, upstreamhttp.StatusError(ProviderName, status, body, c.token)
	}
	return body, status, nil
}

type matchesEnvelope struct {
	Matches []matchItem `json:"matches"`
}

type matchItem struct {
	ID       int64   `json:"id"`
	UTCDate  string  `json:"utcDate"`
	Status   string  `json:"status"`
	HomeTeam teamRef `json:"homeTeam"`
	AwayTeam teamRef `json:"awayTeam"`
	Score    struct {
		Winner   string    `json:"winner"`
		Duration string    `json:"duration"`
		FullTime scorePair `json:"fullTime"`
		HalfTime scorePair `json:"halfTime"`
	} `json:"score"`
}

type teamRef struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
}

type scorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}
