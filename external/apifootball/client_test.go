package apifootball

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Token:      "key-123",
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
		},
	})
}

func TestNewClient_LeavesCallerHTTPClientUntouched(t *testing.T) {
	t.Parallel()

	shared := &http.Client{}
	client := NewClient(ClientConfig{HTTPClient: shared, Logger: logging.NewNop()})

	if shared.Timeout != 0 {
		t.Fatalf("expected caller client timeout unchanged, got=%s", shared.Timeout)
	}
	if client.httpClient == shared {
		t.Fatalf("expected client to hold its own copy of the http client")
	}
	assert.Equal(t, 20*time.Second, client.httpClient.Timeout)

	custom := &http.Client{Timeout: 3 * time.Second}
	assert.Equal(t, 3*time.Second, NewClient(ClientConfig{HTTPClient: custom, Logger: logging.NewNop()}).httpClient.Timeout)
}

func TestFetchTeams(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/teams" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-apisports-key"); got != "key-123" {
			t.Errorf("expected api key header, got=%q", got)
		}
		if r.URL.Query().Get("league") != "39" || r.URL.Query().Get("season") != "2025" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"errors":[],"response":[
			{"team":{"id":39,"name":"Wolves","code":"wol","country":"England","founded":1877,"logo":"https://media/39.png"}},
			{"team":{"id":0,"name":"ghost"}}
		]}`))
	})

	page, err := client.FetchTeams(context.Background(), "39", "2025", 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "39", page.Items[0].ExternalID)
	assert.Equal(t, "WOL", page.Items[0].TLA)
	assert.Empty(t, page.Items[0].ShortName, "code is a TLA, not a short name")
	require.NotNil(t, page.Items[0].Founded)
	assert.Equal(t, 1877, *page.Items[0].Founded)
	assert.False(t, page.HasMore())
	assert.NotEmpty(t, page.Raw)

	next, err := client.FetchTeams(context.Background(), "39", "2025", 2)
	require.NoError(t, err)
	assert.Empty(t, next.Items)
}

func TestFetchFixtures(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":{},"response":[
			{"fixture":{"id":1001,"date":"2025-08-16T16:00:00+01:00","venue":{"name":"Molineux"},"status":{"short":"FT"}},
			 "league":{"round":"Regular Season - 1"},
			 "teams":{"home":{"id":39,"name":"Wolves"},"away":{"id":65,"name":"Nottingham Forest"}},
			 "score":{"halftime":{"home":0,"away":1},"fulltime":{"home":1,"away":1}}},
			{"fixture":{"id":1002,"date":"","timestamp":1755446400,"status":{"short":"NS"}},
			 "league":{"round":"Quarter-finals"},
			 "teams":{"home":{"id":40,"name":"Liverpool"},"away":{"id":42,"name":"Arsenal"}},
			 "score":{"halftime":{"home":null,"away":null},"fulltime":{"home":null,"away":null}}}
		]}`))
	})

	page, err := client.FetchFixtures(context.Background(), "39", "2025", 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	first := page.Items[0]
	assert.Equal(t, time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC), first.KickoffAt)
	require.NotNil(t, first.Matchday)
	assert.Equal(t, 1, *first.Matchday)
	assert.Equal(t, "REGULAR_SEASON", first.Stage)
	assert.Equal(t, "Molineux", first.Venue)
	require.NotNil(t, first.FullTime.Home)
	assert.Equal(t, 1, *first.FullTime.Home)
	assert.Equal(t, "65", first.AwayExternalID)

	second := page.Items[1]
	assert.Nil(t, second.Matchday)
	assert.Equal(t, "QUARTER-FINALS", second.Stage)
	assert.Equal(t, time.Unix(1755446400, 0).UTC(), second.KickoffAt)
	assert.True(t, second.FullTime.IsZero())
}

func TestProviderErrorsInBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		transient bool
	}{
		{name: "missing key", body: `{"errors":{"token":"Error/Missing application key"},"response":[]}`},
		{name: "rate limited", body: `{"errors":{"rateLimit":"Too many requests"},"response":[]}`, transient: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.FetchTeams(context.Background(), "39", "2025", 1)
			require.Error(t, err)
			assert.Equal(t, tc.transient, crerr.Is(err, usecase.ErrUpstreamTransient))
			assert.Equal(t, !tc.transient, crerr.Is(err, usecase.ErrUpstreamPermanent))
		})
	}
}

func TestStatusErrorsAndBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("upstream down key-123 ", 50)))
	})

	for i := 0; i < 2; i++ {
		_, err := client.FetchFixtures(context.Background(), "39", "2025", 1)
		require.Error(t, err)
		assert.True(t, crerr.Is(err, usecase.ErrUpstreamTransient))
		assert.NotContains(t, err.Error(), "key-123")
	}

	_, err := client.FetchFixtures(context.Background(), "39", "2025", 1)
	require.Error(t, err)
	assert.True(t, crerr.Is(err, usecase.ErrDependencyUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}

func TestParseMatchday(t *testing.T) {
	t.Parallel()

	if got := parseMatchday("Regular Season - 38"); got == nil || *got != 38 {
		t.Fatalf("expected matchday 38, got=%v", got)
	}
	if got := parseMatchday("Round of 16"); got != nil {
		t.Fatalf("expected no matchday for cup round, got=%d", *got)
	}
}
