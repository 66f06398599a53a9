// Package fetch concurrently retrieves raw page content for the
// configured source list.
//
// Failures are absorbed, never fatal: a timeout, network error or
// non-success status on one URL degrades that source to empty content
// and cannot affect any other fetch.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Result is the fetch outcome for one source, zipped back to its
// originating URL so extraction can attribute provenance
type Result struct {
	URL  string
	Body string
}

// Fetcher retrieves page sources with a shared per-request timeout
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

type Option func(f *Fetcher)

// WithLogger specifies the logger for the fetcher
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a new fetcher with the given per-request timeout
func New(timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: noopLogger,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Pages fetches all URLs concurrently and returns one result per
// URL, in input order. Every failure yields an empty body; the call
// blocks until all fetches complete or time out, and never errors
func (f *Fetcher) Pages(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	var group errgroup.Group

	for i, url := range urls {
		// Each fetch writes to its own slot, no locking needed
		results[i].URL = url

		group.Go(func() error {
			body, err := f.page(ctx, url)
			if err != nil {
				f.logger.Warn(
					"source fetch failed",
					"url", url,
					"err", err,
				)

				return nil
			}

			results[i].Body = body

			return nil
		})
	}

	_ = group.Wait() //nolint:errcheck // workers never return errors

	return results
}

func (f *Fetcher) page(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("unable to create GET request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("unable to read response body: %w", err)
	}

	return string(body), nil
}
