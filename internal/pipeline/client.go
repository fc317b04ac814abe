// Package pipeline is the HTTP client for the external buyer-group discovery
// service.
//
// The discovery engine itself lives outside this repository; tools call it as
// an opaque collaborator and persist whatever classifications it returns.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("crmops/pipeline")

// serviceTokenTTL bounds how long a minted service token stays valid.
const serviceTokenTTL = 2 * time.Minute

// Member is one classified person returned by the discovery service.
type Member struct {
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	JobTitle   string  `json:"job_title"`
	Department string  `json:"department"`
	Role       string  `json:"role"`
	Confidence float64 `json:"confidence"`
}

// Result is the discovery response for one company.
type Result struct {
	CompanyID string   `json:"company_id"`
	Members   []Member `json:"members"`
}

// Discovery invokes the external buyer-group discovery service.
type Discovery interface {
	Discover(ctx context.Context, workspaceID string, companyID string) (Result, error)
}

// Client calls the discovery service over HTTP.
//
// Authentication is either a static bearer token or, when a JWT secret is
// configured, a short-lived HS256 service token minted per request.
type Client struct {
	baseURL    string
	token      string
	jwtSecret  []byte
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a discovery client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(baseURL string, token string, jwtSecret []byte, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		jwtSecret:  jwtSecret,
		httpClient: httpClient,
		now:        time.Now,
	}
}

type discoverRequest struct {
	WorkspaceID string `json:"workspace_id"`
	CompanyID   string `json:"company_id"`
}

// Discover asks the service to classify the buyer group at one company.
func (c *Client) Discover(ctx context.Context, workspaceID string, companyID string) (Result, error) {
	if c == nil || c.httpClient == nil {
		return Result{}, fmt.Errorf("pipeline client is not configured")
	}
	if c.baseURL == "" {
		return Result{}, fmt.Errorf("pipeline url is required")
	}
	workspaceID = strings.TrimSpace(workspaceID)
	companyID = strings.TrimSpace(companyID)
	if workspaceID == "" {
		return Result{}, fmt.Errorf("workspace id is required")
	}
	if companyID == "" {
		return Result{}, fmt.Errorf("company id is required")
	}

	ctx, span := tracer.Start(ctx, "pipeline.discover",
		trace.WithAttributes(attribute.String("crm.company_id", companyID)),
	)
	defer span.End()

	payload, err := json.Marshal(discoverRequest{WorkspaceID: workspaceID, CompanyID: companyID})
	if err != nil {
		return Result{}, fmt.Errorf("encode discover request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/buyer-groups/discover", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build discover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	auth, err := c.authToken(workspaceID)
	if err != nil {
		return Result{}, err
	}
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("discover request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("discovery service returned %s", resp.Status)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode discover response: %w", err)
	}
	if result.CompanyID == "" {
		result.CompanyID = companyID
	}
	return result, nil
}

// authToken returns the bearer credential for one request. A configured JWT
// secret wins over the static token.
func (c *Client) authToken(workspaceID string) (string, error) {
	if len(c.jwtSecret) == 0 {
		return c.token, nil
	}
	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    "crmops",
		Subject:   workspaceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(serviceTokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return signed, nil
}
