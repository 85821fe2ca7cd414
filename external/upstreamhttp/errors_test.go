package upstreamhttp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

func TestStatusErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code      int
		transient bool
	}{
		{code: 429, transient: true},
		{code: 500, transient: true},
		{code: 503, transient: true},
		{code: 408, transient: true},
		{code: 400, transient: false},
		{code: 401, transient: false},
		{code: 404, transient: false},
	}
	for _, tc := range tests {
		err := StatusError("footballdata", tc.code, []byte(`{"message":"bad token secret-1"}`), "secret-1")
		if got := crerr.Is(err, usecase.ErrUpstreamTransient); got != tc.transient {
			t.Fatalf("status %d: expected transient=%t, got=%t", tc.code, tc.transient, got)
		}
		if got := crerr.Is(err, usecase.ErrUpstreamPermanent); got == tc.transient {
			t.Fatalf("status %d: expected permanent=%t, got=%t", tc.code, !tc.transient, got)
		}
		if strings.Contains(err.Error(), "secret-1") {
			t.Fatalf("expected token to be redacted, got=%s", err.Error())
		}
	}
}

func TestAbbreviate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 1000)
	got := Abbreviate([]byte(long))
	if len(got) != maxBodyPreview+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected abbreviated body, got len=%d", len(got))
	}
	if got := Abbreviate([]byte("  short  ")); got != "short" {
		t.Fatalf("expected trimmed body, got=%q", got)
	}
}

func TestTransportErrorKeepsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := TransportError(ctx, "sportmonks", "get fixtures", errors.New("dial tcp: refused"))
	if crerr.Is(err, usecase.ErrUpstreamTransient) {
		t.Fatalf("expected cancelled call not to be transient")
	}
	if !crerr.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got=%v", err)
	}

	err = TransportError(context.Background(), "sportmonks", "get fixtures", errors.New("dial tcp token-9: refused"), "token-9")
	if !crerr.Is(err, usecase.ErrUpstreamTransient) {
		t.Fatalf("expected network failure to be transient, got=%v", err)
	}
	if strings.Contains(err.Error(), "token-9") {
		t.Fatalf("expected token to be redacted, got=%s", err.Error())
	}
}

func TestGuardOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})
	logger := logging.NewNop()
	transient := crerr.Mark(errors.New("503"), usecase.ErrUpstreamTransient)
	permanent := crerr.Mark(errors.New("404"), usecase.ErrUpstreamPermanent)

	calls := 0
	call := func(err error) func() error {
		return func() error {
			calls++
			return err
		}
	}

	_ = Guard(context.Background(), breaker, logger, "apifootball", call(permanent))
	_ = Guard(context.Background(), breaker, logger, "apifootball", call(transient))
	_ = Guard(context.Background(), breaker, logger, "apifootball", call(transient))
	err := Guard(context.Background(), breaker, logger, "apifootball", call(nil))
	if !crerr.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open breaker to reject, got=%v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls to reach the provider, got=%d", calls)
	}

	if err := Guard(context.Background(), nil, logger, "apifootball", call(nil)); err != nil {
		t.Fatalf("expected nil breaker to allow calls, got=%v", err)
	}
}
