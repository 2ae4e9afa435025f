// Package fetch provides the HTTP retrieval capability consumed by the
// packaging engine when it resolves covers, remote stylesheets and
// chapter-embedded images.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Result holds the outcome of a single fetch.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the response carried a success status.
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client retrieves a remote resource. Implementations return an error only
// for transport failures; non-success HTTP statuses are reported through
// Result.StatusCode so callers can decide how to react.
type Client interface {
	Fetch(rawURL string) (*Result, error)
}

// HTTPClient is the default Client backed by net/http.
type HTTPClient struct {
	hc *http.Client
}

// NewHTTPClient creates an HTTPClient with a bounded request timeout.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{hc: &http.Client{Timeout: defaultTimeout}}
}

// Fetch performs a GET request and reads the full response body.
func (c *HTTPClient) Fetch(rawURL string) (*Result, error) {
	resp, err := c.hc.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", rawURL, err)
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
