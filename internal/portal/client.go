// Package portal is a read-only client for the SE Portal CRUD API, the
// content source the search index is built from.
package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Collection names served by the portal API. The aggregator fetches all
// five on every snapshot refresh.
const (
	CollectionURLAssets  = "url-assets"
	CollectionFileAssets = "file-assets"
	CollectionScripts    = "scripts"
	CollectionEvents     = "events"
	CollectionShoutouts  = "shoutouts"
)

// Collections lists all source collections in snapshot insertion order.
var Collections = []string{
	CollectionURLAssets,
	CollectionFileAssets,
	CollectionScripts,
	CollectionEvents,
	CollectionShoutouts,
}

// Record is a raw portal record. The five collections have loose,
// inconsistent field names ("name" vs "title"), so records stay untyped
// until a per-kind adapter validates them.
type Record map[string]any

// Config holds portal API client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches content collections from the portal API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a portal API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Collection fetches one collection as a JSON array of raw records.
func (c *Client) Collection(ctx context.Context, name string) ([]Record, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", name, resp.StatusCode, string(body))
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return records, nil
}
