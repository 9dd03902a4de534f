// Package remote is the blob store client. The remote service is one opaque
// JSON document per identifier: GET returns the stored document (absence is
// a normal not-found, not an error), POST upserts it. Every other failure --
// network error, 5xx, malformed body -- is a uniform "sync failed" to the
// caller.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one blob store endpoint.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for the endpoint at baseURL (scheme://host[:port]).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) docURL(identifier string) string {
	return c.base + "/api/db?identifier=" + url.QueryEscape(identifier)
}

// Get fetches the document stored under identifier. found is false when no
// record exists; that is a normal first-sync branch, not an error.
func (c *Client) Get(ctx context.Context, identifier string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.docURL(identifier), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", identifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("get %s: status %d", identifier, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("get %s: read body: %w", identifier, err)
	}
	if !json.Valid(body) {
		return nil, false, fmt.Errorf("get %s: malformed document", identifier)
	}
	return json.RawMessage(body), true, nil
}

// Put upserts the document stored under identifier.
func (c *Client) Put(ctx context.Context, identifier string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.docURL(identifier), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", identifier, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("put %s: status %d", identifier, resp.StatusCode)
	}
	return nil
}
