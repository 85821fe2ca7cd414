package footballdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		BaseURL: server.URL,
		Token:   "fd-token",
		Timeout: 5 * time.Second,
		Logger:  logging.NewNop(),
	})
}

func TestFetchFinishedMatches(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/competitions/PL/matches" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Auth-Token"); got != "fd-token" {
			t.Errorf("expected auth header, got=%q", got)
		}
		query := r.URL.Query()
		if query.Get("status") != "FINISHED" || query.Get("dateFrom") != "2025-08-14" || query.Get("dateTo") != "2025-08-17" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"matches":[
			{"id":537785,"utcDate":"2025-08-16T14:00:00Z","status":"FINISHED",
			 "homeTeam":{"id":76,"name":"Wolverhampton Wanderers FC","shortName":"Wolves","tla":"WOL"},
			 "awayTeam":{"id":351,"name":"Nottingham Forest FC","shortName":"Nottingham","tla":"NOT"},
			 "score":{"winner":"DRAW","duration":"REGULAR","fullTime":{"home":1,"away":1},"halfTime":{"home":0,"away":1}}},
			{"id":537786,"utcDate":"2025-08-17T14:00:00Z","status":"TIMED",
			 "homeTeam":{"id":1,"name":"A"},"awayTeam":{"id":2,"name":"B"},"score":{}}
		]}`))
	})

	from := time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 17, 23, 0, 0, 0, time.UTC)
	page, err := client.FetchFinishedMatches(context.Background(), "pl", from, to)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	result := page.Items[0]
	assert.Equal(t, "537785", result.ExternalID)
	assert.Equal(t, "Wolves", result.HomeShortName)
	assert.Equal(t, "Nottingham", result.AwayShortName)
	assert.Equal(t, fixture.WinnerDraw, result.Winner)
	assert.Equal(t, fixture.DurationRegular, result.Duration)
	require.NotNil(t, result.HalfTime.Away)
	assert.Equal(t, 1, *result.HalfTime.Away)
	assert.NotEmpty(t, page.Raw)
}

func TestFetchFinishedMatches_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "server error", status: http.StatusServiceUnavailable, transient: true},
		{name: "restricted tier", status: http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"token fd-token rejected"}`))
			})
			_, err := client.FetchFinishedMatches(context.Background(), "PL", time.Now(), time.Now())
			require.Error(t, err)
			assert.Equal(t, tc.transient, crerr.Is(err, usecase.ErrUpstreamTransient))
			assert.NotContains(t, err.Error(), "fd-token")
		})
	}
}

func TestFetchFinishedMatches_RespectsCancelledContext(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Errorf("request must not be sent")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchFinishedMatches(ctx, "PL", time.Now(), time.Now())
	require.Error(t, err)
	assert.True(t, crerr.Is(err, context.Canceled))
	assert.False(t, crerr.Is(err, usecase.ErrUpstreamTransient))
}
