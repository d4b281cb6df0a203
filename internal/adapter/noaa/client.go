// Package noaa retrieves GHCN-Daily station files over HTTP and keeps a
// local copy of the last good download for offline fallback.
package noaa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrExhausted is the terminal result of a fetch whose retries ran out on
// every configured location. Callers decide whether a cached copy can stand
// in for live data.
var ErrExhausted = errors.New("all fetch attempts exhausted")

// transientStatus lists HTTP statuses worth retrying.
var transientStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client downloads a station's .dly file from a primary location, falling
// back to a mirror, with bounded exponential-backoff retries per location.
type Client struct {
	httpClient  *http.Client
	primaryURL  string // printf template with one %s for the station id
	fallbackURL string
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger
	onRetry     func()
}

// Options configures a Client. Zero-value fields fall back to defaults.
type Options struct {
	PrimaryURL  string
	FallbackURL string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	Clock       clockwork.Clock
	OnRetry     func() // invoked once per retry attempt, e.g. to bump a counter
}

// NewClient creates a GHCN-Daily fetch client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}
	return &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		primaryURL:  opts.PrimaryURL,
		fallbackURL: opts.FallbackURL,
		maxRetries:  opts.MaxRetries,
		backoffBase: opts.BackoffBase,
		backoffMax:  30 * time.Second,
		clock:       opts.Clock,
		logger:      logger,
		onRetry:     opts.OnRetry,
	}
}

// FetchStation returns the raw .dly text for the station. The primary
// location is tried first with full retries, then the fallback. A non-nil
// error wraps ErrExhausted once every attempt has failed.
func (c *Client) FetchStation(ctx context.Context, stationID string) (string, error) {
	urls := []string{fmt.Sprintf(c.primaryURL, stationID)}
	if c.fallbackURL != "" {
		urls = append(urls, fmt.Sprintf(c.fallbackURL, stationID))
	}

	var lastErr error
	for _, u := range urls {
		text, err := c.fetchWithRetries(ctx, u)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logger.Warn("station fetch failed, trying next location", "url", u, "error", err)
	}
	return "", fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}

func (c *Client) fetchWithRetries(ctx context.Context, url string) (string, error) {
	backoff := c.backoffBase
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if c.onRetry != nil {
				c.onRetry()
			}
			c.logger.Info("retrying station fetch", "url", url, "attempt", attempt, "backoff", backoff)
			if !c.sleep(ctx, backoff) {
				return "", ctx.Err()
			}
			backoff = nextBackoff(backoff, c.backoffMax)
		}

		text, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", lastErr
}

// fetchOnce performs a single GET. The second return value reports whether
// the failure is transient (connection error or retryable status).
func (c *Client) fetchOnce(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("fetch station file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse
		return "", transientStatus[resp.StatusCode], fmt.Errorf("fetch station file: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read station file: %w", err)
	}
	return string(body), false, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(d):
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
