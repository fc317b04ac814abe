// Package enrich issues requests against third-party enrichment and speech
// endpoints.
//
// The services themselves are opaque: the tools in this repository only probe
// them and print what came back, they never interpret provider payloads.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxProbeBody caps how much of a provider response a probe will read.
const maxProbeBody = 1 << 20

// ProbeRequest describes one request against a provider endpoint.
type ProbeRequest struct {
	URL    string
	APIKey string
	// Payload, when non-empty, is sent as a JSON POST body. Empty payloads
	// issue a GET.
	Payload []byte
}

// ProbeResult carries the raw provider response.
type ProbeResult struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

// Client probes provider endpoints over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a probe client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// Probe issues a single request and returns the raw response. No retries:
// probes exist to show exactly what the provider did on one attempt.
func (c *Client) Probe(ctx context.Context, probe ProbeRequest) (ProbeResult, error) {
	if c == nil || c.httpClient == nil {
		return ProbeResult{}, fmt.Errorf("probe client is not configured")
	}
	probe.URL = strings.TrimSpace(probe.URL)
	if probe.URL == "" {
		return ProbeResult{}, fmt.Errorf("probe url is required")
	}

	method := http.MethodGet
	var body io.Reader
	if len(probe.Payload) > 0 {
		method = http.MethodPost
		body = bytes.NewReader(probe.Payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, probe.URL, body)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("build probe request: %w", err)
	}
	if probe.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+probe.APIKey)
	}
	if len(probe.Payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return ProbeResult{}, fmt.Errorf("read probe response: %w", err)
	}

	return ProbeResult{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Body:       string(raw),
	}, nil
}
