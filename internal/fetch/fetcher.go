package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tendertrack/tender-agent/internal/common"
)

// Fetcher retrieves document bytes for a URL discovered inside another
// document. Implementations must bound their own timeouts.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads linked PDFs. Failures wrap ErrLinkFetchFailed so
// the traversal can drop the branch without aborting siblings.
type HTTPFetcher struct {
	client  *http.Client
	maxSize int64
	logger  *slog.Logger
}

func NewHTTPFetcher(timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		maxSize: 64 << 20,
		logger:  logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", common.ErrLinkFetchFailed, err)
	}
	req.Header.Set("User-Agent", "tender-agent/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("link fetch failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", common.ErrLinkFetchFailed, url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("link fetch body close error", "url", url, "error", err)
		}
	}()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %s: status %d", common.ErrLinkFetchFailed, url, resp.StatusCode)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(ct, "pdf") && !strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return nil, fmt.Errorf("%w: %s: not a pdf (content-type %q)", common.ErrLinkFetchFailed, url, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", common.ErrLinkFetchFailed, url, err)
	}

	f.logger.Info("linked document fetched",
		"url", url, "bytes", len(body), "elapsed_ms", time.Since(start).Milliseconds())
	return body, nil
}
