// Package source provides shared source-side plumbing, currently the plain
// HTTP file fetcher used for direct URLs and Zoho download links.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

// HTTPFetcher downloads files over HTTP(S). It implements port.FileFetcher.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with a sane download timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: 120 * time.Second}}
}

// Fetch downloads the URL and returns the body plus the reported content type.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, "", domain.ErrInvalidFileURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating download request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download of %s failed with %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading download: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

var _ port.FileFetcher = (*HTTPFetcher)(nil)
