package govuk

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/nhs-trust-dashboard/internal/domain"
	"github.com/go-resty/resty/v2"
)

// Client downloads the coronavirus dashboard CSV export to a local cache file.
// It implements pipeline.Downloader.
type Client struct {
	feedURL   string
	cachePath string
	http      *resty.Client
	logger    *slog.Logger
}

// NewClient creates a feed client. The cache file is overwritten on every download.
func NewClient(feedURL, cachePath string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		feedURL:   feedURL,
		cachePath: cachePath,
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "text/csv"),
		logger: logger,
	}
}

// Download fetches the feed and returns the path of the written cache file.
// Any transport failure or non-2xx response is a domain.FetchError.
func (c *Client) Download(ctx context.Context) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetOutput(c.cachePath).
		Get(c.feedURL)
	if err != nil {
		return "", &domain.FetchError{URL: c.feedURL, Err: err}
	}
	if resp.IsError() {
		return "", &domain.FetchError{URL: c.feedURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode())}
	}

	info, err := os.Stat(c.cachePath)
	if err != nil {
		return "", &domain.FetchError{URL: c.feedURL, Err: fmt.Errorf("stat cache file: %w", err)}
	}

	c.logger.Info("feed downloaded",
		"path", c.cachePath,
		"bytes", info.Size(),
		"status", resp.StatusCode(),
		"duration", resp.Time(),
	)
	return c.cachePath, nil
}
