// Package vercel is a small client for the parts of the Vercel REST API used
// to publish static pages.
package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL           string
	Token             string
	TeamID            string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client talks to the Vercel deployments, aliases and projects endpoints.
type Client struct {
	baseURL    string
	teamID     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// APIError is a non-2xx response from Vercel.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vercel returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("vercel returned status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a client authenticated with a static bearer token.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = int(opts.RequestsPerSecond) + 1
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		teamID:     opts.TeamID,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// CreateDeployment uploads files as a new production deployment named name.
// Any failure is reported as *domain.DeploymentError.
func (c *Client) CreateDeployment(ctx context.Context, name string, files []domain.File) (*domain.Deployment, error) {
	body := createDeploymentRequest{
		Name:   name,
		Files:  make([]deploymentFile, 0, len(files)),
		Target: "production",
	}
	for _, f := range files {
		body.Files = append(body.Files, deploymentFile{File: f.Path, Data: f.Data})
	}

	var resp deploymentResponse
	if err := c.do(ctx, http.MethodPost, "/v13/deployments", body, &resp); err != nil {
		return nil, &domain.DeploymentError{Message: providerMessage(err)}
	}
	if resp.ID == "" {
		return nil, &domain.DeploymentError{Message: "response did not include a deployment id"}
	}
	return resp.toDomain(), nil
}

// GetDeployment fetches the current state of a deployment.
func (c *Client) GetDeployment(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	var resp deploymentResponse
	if err := c.do(ctx, http.MethodGet, "/v13/deployments/"+url.PathEscape(deploymentID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get deployment %s: %w", deploymentID, err)
	}
	return resp.toDomain(), nil
}

// CreateAlias binds alias (a full hostname) to a deployment.
// Failures are reported as *domain.AliasError.
func (c *Client) CreateAlias(ctx context.Context, deploymentID, alias string) error {
	var resp aliasResponse
	path := "/v2/deployments/" + url.PathEscape(deploymentID) + "/aliases"
	if err := c.do(ctx, http.MethodPost, path, aliasRequest{Alias: alias}, &resp); err != nil {
		return &domain.AliasError{Alias: alias, Message: providerMessage(err)}
	}
	return nil
}

// DeleteProject removes a hosting project and all of its deployments.
// A project that no longer exists is not an error.
func (c *Client) DeleteProject(ctx context.Context, name string) error {
	err := c.do(ctx, http.MethodDelete, "/v9/projects/"+url.PathEscape(name), nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete project %s: %w", name, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	logger := logging.FromContext(ctx, "vercel")

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("method", method).Str("path", path).Msg("vercel request failed")
		return fmt.Errorf("failed to call vercel: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("vercel call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	u := c.baseURL + path
	if c.teamID != "" {
		u += "?teamId=" + url.QueryEscape(c.teamID)
	}
	return u
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Code = parsed.Error.Code
		apiErr.Message = parsed.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// providerMessage prefers the message Vercel sent over the wrapped Go error.
func providerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func (r deploymentResponse) toDomain() *domain.Deployment {
	return &domain.Deployment{
		ID:           r.ID,
		URL:          r.URL,
		Status:       domain.Status(strings.ToUpper(r.ReadyState)),
		ErrorMessage: r.ErrorMessage,
	}
}
