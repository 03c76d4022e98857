package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"msupdates/internal/config"
	"msupdates/internal/logger"
	"msupdates/pkg/utils"
)

// Scraper errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrBodyTooLarge         = errors.New("response body exceeds limit")
)

// DefaultMaxBodyBytes caps a single response. Monthly CVRF documents run to a few MB.
const DefaultMaxBodyBytes = 64 << 20

// Scraper performs GET requests with config-driven retry logic.
type Scraper struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	log          *logger.Logger
	userAgent    string
	maxBodyBytes int64
}

// NewScraperWithConfig creates a new scraper with a custom retry policy.
func NewScraperWithConfig(retryPolicy *config.RetryPolicy, userAgent string, log *logger.Logger) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		log:          log,
		userAgent:    userAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// policyBackOff replays RetryPolicy.GetRetryDelay as a backoff.BackOff.
type policyBackOff struct {
	policy  *config.RetryPolicy
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.attempt++

	next := b.attempt + 1
	if next > b.policy.MaxAttempts {
		return backoff.Stop
	}

	return b.policy.GetRetryDelay(next)
}

func (b *policyBackOff) Reset() { b.attempt = 0 }

// FetchWithMetrics returns (body, statusCode, duration, error) for url. Transport
// errors and temporary statuses are retried; other statuses fail immediately.
func (s *Scraper) FetchWithMetrics(ctx context.Context, url, accept string) ([]byte, int, time.Duration, error) {
	var (
		body       []byte
		lastStatus int
		attempt    int
	)

	start := time.Now()

	op := func() error {
		attempt++

		b, status, err := s.fetchOnce(ctx, url, accept)
		lastStatus = status

		if err != nil {
			return err
		}

		body = b

		return nil
	}

	notify := func(err error, delay time.Duration) {
		s.log.Debug("retrying request",
			"url", url,
			"attempt", attempt,
			"max_attempts", s.retryPolicy.MaxAttempts,
			"delay", delay,
			"error", err,
		)
	}

	bo := backoff.WithContext(&policyBackOff{policy: s.retryPolicy}, ctx)
	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return nil, lastStatus, time.Since(start), fmt.Errorf("GET %s (attempt %d/%d): %w", url, attempt, s.retryPolicy.MaxAttempts, err)
	}

	return body, lastStatus, time.Since(start), nil
}

// Fetch returns the body at url.
func (s *Scraper) Fetch(ctx context.Context, url, accept string) ([]byte, error) {
	body, _, _, err := s.FetchWithMetrics(ctx, url, accept)

	return body, err
}

func (s *Scraper) fetchOnce(ctx context.Context, url, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header = utils.BuildHeaders(s.userAgent, accept)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, backoff.Permanent(err)
		}

		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		statusErr := fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
		if !isRetryableStatus(resp.StatusCode) {
			return nil, resp.StatusCode, backoff.Permanent(statusErr)
		}

		return nil, resp.StatusCode, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > s.maxBodyBytes {
		return nil, resp.StatusCode, backoff.Permanent(fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, s.maxBodyBytes))
	}

	return body, resp.StatusCode, nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
