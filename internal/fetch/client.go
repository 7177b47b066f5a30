// Package fetch retrieves the agency's published enrollment workbooks over
// HTTP and decodes them into raw sheet grids. All I/O in the pipeline lives
// here; the extraction core only ever sees materialized grids.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"mischooldata/internal/config"
	"mischooldata/internal/files"
)

// RetrievalError wraps a failed workbook download or decode. The reason
// string is propagated, not interpreted.
type RetrievalError struct {
	EndYear int
	URL     string
	Reason  string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for year %d (%s): %s", e.EndYear, e.URL, e.Reason)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Client downloads workbooks cache-first with retries, a browser User-Agent,
// and a per-host rate limit.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        config.HTTPConfig
	cache      *files.Manager
	logger     *slog.Logger
}

// NewClient creates a fetch client. A nil logger falls back to slog.Default.
func NewClient(cfg config.HTTPConfig, cache *files.Manager, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RateBurst),
		cfg:        cfg,
		cache:      cache,
		logger:     logger,
	}
}

// WorkbookURL builds the published file URL for a year.
func (c *Client) WorkbookURL(endYear int, binary bool) string {
	ext := "xlsx"
	if binary {
		ext = "xls"
	}
	return fmt.Sprintf("%s/HistoricalEnrollment_%d.%s", c.cfg.BaseURL, endYear, ext)
}

// FetchWorkbook returns a decoded workbook for the year, downloading it into
// the cache unless already present. A cached file that fails to decode is
// evicted and downloaded once more before giving up.
func (c *Client) FetchWorkbook(ctx context.Context, endYear int, binary bool) (*Workbook, error) {
	if path, ok := c.cache.CachedWorkbook(endYear, binary); ok {
		wb, err := OpenWorkbook(path)
		if err == nil {
			return wb, nil
		}
		c.logger.Warn("cached workbook undecodable, re-downloading",
			slog.Int("end_year", endYear),
			slog.String("path", path),
			slog.String("error", err.Error()))
		if rmErr := c.cache.Remove(endYear, binary); rmErr != nil {
			return nil, rmErr
		}
	}

	path, err := c.download(ctx, endYear, binary)
	if err != nil {
		return nil, err
	}

	wb, err := OpenWorkbook(path)
	if err != nil {
		return nil, &RetrievalError{
			EndYear: endYear,
			URL:     c.WorkbookURL(endYear, binary),
			Reason:  fmt.Sprintf("decode failure: %v", err),
			Err:     err,
		}
	}
	return wb, nil
}

// download fetches the workbook with bounded retries and linear backoff.
func (c *Client) download(ctx context.Context, endYear int, binary bool) (string, error) {
	url := c.WorkbookURL(endYear, binary)

	var lastReason string
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.cfg.RetryBackoff
			c.logger.Debug("retrying download",
				slog.Int("end_year", endYear),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return "", &RetrievalError{EndYear: endYear, URL: url, Reason: ctx.Err().Error(), Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", &RetrievalError{EndYear: endYear, URL: url, Reason: err.Error(), Err: err}
		}

		path, reason, err := c.attempt(ctx, endYear, binary, url)
		if err == nil {
			return path, nil
		}
		lastReason = reason
		c.logger.Warn("download attempt failed",
			slog.Int("end_year", endYear),
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.String("reason", reason))
	}

	return "", &RetrievalError{EndYear: endYear, URL: url, Reason: lastReason}
}

func (c *Client) attempt(ctx context.Context, endYear int, binary bool, url string) (path, reason string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err.Error(), err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/vnd.ms-excel,*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err.Error(), err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("HTTP %d", resp.StatusCode)
		return "", reason, fmt.Errorf("unexpected status: %s", reason)
	}

	path, err = c.cache.SaveWorkbook(endYear, binary, resp.Body)
	if err != nil {
		return "", err.Error(), err
	}
	return path, "", nil
}
