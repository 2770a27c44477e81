package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fyrsmithlabs/rankd/internal/weights"
)

// Client queries a running rankd server's HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// metricsEnvelope mirrors the GET /api/v1/metrics response body.
type metricsEnvelope struct {
	Since   time.Time `json:"since"`
	Until   time.Time `json:"until"`
	Summary Summary   `json:"summary"`
}

// weightsEnvelope mirrors the GET /api/v1/weights response body.
type weightsEnvelope struct {
	Intents map[string]weights.Optimized `json:"intents"`
}

// NewClient creates a client for the rankd API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// FetchSummary retrieves the aggregated metrics for the trailing window.
func (c *Client) FetchSummary(ctx context.Context, window time.Duration) (Summary, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/metrics")
	if err != nil {
		return Summary{}, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("window", window.String())
	u.RawQuery = q.Encode()

	var envelope metricsEnvelope
	if err := c.getJSON(ctx, u.String(), &envelope); err != nil {
		return Summary{}, err
	}
	return envelope.Summary, nil
}

// FetchWeights retrieves the weight vectors currently being served.
func (c *Client) FetchWeights(ctx context.Context) (map[string]weights.Optimized, error) {
	var envelope weightsEnvelope
	if err := c.getJSON(ctx, c.baseURL+"/api/v1/weights", &envelope); err != nil {
		return nil, err
	}
	return envelope.Intents, nil
}

// Health checks the server's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
