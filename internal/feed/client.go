package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/observability"
)

const maxFeedBytes = 4 << 20

// Fetcher retrieves a fresh Snapshot on every call. It neither caches nor retries.
type Fetcher struct {
	client  *http.Client
	url     string
	timeout time.Duration
	logger  *slog.Logger
}

func NewFetcher(client *http.Client, feedURL string, timeout time.Duration, logger *slog.Logger) (*Fetcher, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("feed url must be http(s), got %q", feedURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, url: u.String(), timeout: timeout, logger: logger}, nil
}

// Fetch returns the current snapshot. An empty feed is not an error; any
// transport, status or decode failure wraps ErrUnavailable.
func (f *Fetcher) Fetch(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	snap, err := f.fetch(ctx)
	observability.ObserveFeedFetch(err, len(snap), time.Since(start).Seconds())
	if err != nil {
		f.logger.ErrorContext(ctx, "live status fetch failed", "url", f.url, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	f.logger.DebugContext(ctx, "live status fetched",
		"entries", len(snap),
		"duration", time.Since(start).String())
	return snap, nil
}

func (f *Fetcher) fetch(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", f.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, f.url)
	}

	snap, err := Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}
	return snap, nil
}
