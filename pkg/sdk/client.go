// Package sdk is the client library for searchd: a thin HTTP client plus
// the Cmd+K search-box session driver with debounce, stale-response
// discarding and local fallback ranking.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seportal/searchd/pkg/ranker"
)

// SearchResult is one remote or fallback hit as seen by the client.
type SearchResult struct {
	ranker.Item
	Score float64 `json:"score"`
}

// SearchResponse is the POST /search reply.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Query   string         `json:"query"`
	Model   string         `json:"model"`
}

// SnapshotResponse is the GET /snapshot reply.
type SnapshotResponse struct {
	Items    []ranker.Item `json:"items"`
	Complete bool          `json:"complete"`
}

// InitEmbeddingsResponse is the POST /init-embeddings reply.
type InitEmbeddingsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Config holds client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to a searchd instance.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a searchd client.
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

// Search runs a remote semantic query. Any non-2xx status or malformed
// body is an error; callers fall back to ranker.Rank over their cached
// snapshot.
func (c *Client) Search(ctx context.Context, query string) (SearchResponse, error) {
	var resp SearchResponse
	err := c.doJSON(ctx, http.MethodPost, "/search", map[string]string{"query": query}, &resp)
	if err != nil {
		return SearchResponse{}, err
	}
	return resp, nil
}

// Snapshot fetches the full searchable item set for the local fallback
// cache. Called once at session start.
func (c *Client) Snapshot(ctx context.Context) (SnapshotResponse, error) {
	var resp SnapshotResponse
	if err := c.doJSON(ctx, http.MethodGet, "/snapshot", nil, &resp); err != nil {
		return SnapshotResponse{}, err
	}
	return resp, nil
}

// InitEmbeddings triggers a full re-index. Operator action.
func (c *Client) InitEmbeddings(ctx context.Context) (InitEmbeddingsResponse, error) {
	var resp InitEmbeddingsResponse
	if err := c.doJSON(ctx, http.MethodPost, "/init-embeddings", nil, &resp); err != nil {
		return InitEmbeddingsResponse{}, err
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
