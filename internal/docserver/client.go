package docserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ConnectTimeout bounds the liveness probe against the document server.
const ConnectTimeout = 5 * time.Second

// Client talks to the OnlyOffice document server: a liveness probe for the
// view flow and the outbound fetch of saved content during callbacks.
type Client struct {
	baseURL string
	http    *http.Client
	probe   *http.Client
}

// NewClient creates a client for the document server at baseURL.
// fetchTimeout bounds the download of saved files; zero means no limit
// beyond the request context.
func NewClient(baseURL string, fetchTimeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: fetchTimeout},
		probe:   &http.Client{Timeout: ConnectTimeout},
	}
}

// IsOnline probes the document server. A failed probe switches the viewer to
// offline/download-only mode; it is re-checked fresh on every page load, so
// the result is never cached.
func (c *Client) IsOnline(ctx context.Context) bool {
	if c.baseURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusFound
}

// Fetch downloads the new file content the document server offered in a save
// callback. The caller owns the returned reader.
func (c *Client) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch new file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("fetch new file: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}
