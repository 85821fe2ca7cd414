// Package upstreamhttp holds the error classification and log hygiene
// shared by the provider clients.
package upstreamhttp

import (
	"context"
	"net/http"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

const maxBodyPreview = 240

// IsRetryableStatus reports whether a response status is worth retrying.
func IsRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

// StatusError classifies a non-2xx response. The body is abbreviated and
// scrubbed of secrets.
func StatusError(provider string, code int, body []byte, secrets ...string) error {
	err := crerr.Newf("%s status=%d body=%s", provider, code, Redact(Abbreviate(body), secrets...))
	if IsRetryableStatus(code) {
		return crerr.Mark(err, usecase.ErrUpstreamTransient)
	}
	return crerr.Mark(err, usecase.ErrUpstreamPermanent)
}

// TransportError marks network failures as transient. Context errors are
// passed through so cancellation is never retried.
func TransportError(ctx context.Context, provider, op string, err error, secrets ...string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return crerr.Wrapf(ctxErr, "%s %s", provider, op)
	}
	return crerr.Mark(crerr.Newf("%s %s: %s", provider, op, Redact(err.Error(), secrets...)), usecase.ErrUpstreamTransient)
}

// DecodeError marks an unreadable payload as permanent; retrying returns
// the same bytes.
func DecodeError(provider string, err error) error {
	return crerr.Mark(crerr.Wrapf(err, "decode %s payload", provider), usecase.ErrUpstreamPermanent)
}

// Abbreviate trims a response body for logs and diagnostics.
func Abbreviate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxBodyPreview {
		return text
	}
	return text[:maxBodyPreview] + "..."
}

// Redact replaces every non-empty secret in text.
func Redact(text string, secrets ...string) string {
	for _, secret := range secrets {
		if strings.TrimSpace(secret) == "" {
			continue
		}
		text = strings.ReplaceAll(text, secret, "REDACTED")
	}
	return text
}

// Guard runs call behind a circuit breaker. Only transient failures trip
// the breaker; a rejected request is reported as a dependency outage.
func Guard(ctx context.Context, breaker *resilience.CircuitBreaker, logger *logging.Logger, provider string, call func() error) error {
	if err := breaker.Allow(); err != nil {
		logger.WarnContext(ctx, "circuit breaker rejected request", "provider", provider, "state", breaker.State())
		return crerr.Mark(crerr.Wrapf(err, "%s is temporarily unavailable", provider), usecase.ErrDependencyUnavailable)
	}
	err := call()
	switch {
	case err == nil:
		breaker.RecordSuccess()
	case crerr.Is(err, usecase.ErrUpstreamTransient):
		breaker.RecordFailure()
	case crerr.Is(err, context.Canceled):
	default:
		breaker.RecordSuccess()
	}
	return err
}
