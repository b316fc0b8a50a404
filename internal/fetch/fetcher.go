// Package fetch downloads a resolved stream URL and infers a file
// extension from the response content type. It never touches the
// filesystem; persisting the bytes is the cache layer's job.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// Doer executes one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves media bytes over HTTP.
type Fetcher struct {
	httpClient Doer
	userAgent  string
	logger     observability.Logger
	metrics    observability.Metrics
}

// NewFetcher creates a Fetcher.
func NewFetcher(client Doer, userAgent string, logger observability.Logger, metrics observability.Metrics) *Fetcher {
	return &Fetcher{
		httpClient: client,
		userAgent:  userAgent,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch downloads the URL and returns the full body plus the extension
// inferred from the Content-Type header. The extension is empty when the
// content type maps to nothing, in which case the file is stored without a
// suffix.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	start := time.Now()
	f.metrics.StartOperation("fetch")
	defer f.metrics.EndOperation("fetch")
	defer func() {
		f.metrics.RecordDuration("fetch", time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", domain.ErrFetchFailed("building fetch request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.metrics.RecordError("fetch", "transport")
		return nil, "", domain.ErrFetchFailed("media fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.metrics.RecordError("fetch", "status")
		io.Copy(io.Discard, resp.Body)
		return nil, "", domain.ErrFetchFailed(
			fmt.Sprintf("media fetch returned status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.metrics.RecordError("fetch", "read")
		return nil, "", domain.ErrReadFailed("reading media body", err)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := ExtensionForContentType(contentType)

	f.metrics.RecordSuccess("fetch")
	f.metrics.RecordFileSize(fileType(ext), int64(len(data)))
	f.logger.Debug(ctx, "Media fetched", observability.Fields{
		"bytes":        len(data),
		"content_type": contentType,
		"extension":    ext,
	})

	return data, ext, nil
}

func fileType(ext string) string {
	if ext == "" {
		return "unknown"
	}
	return ext
}
