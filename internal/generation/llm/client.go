package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Client talks to the page generation service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a client that sends apiKey as a bearer token when set.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	if apiKey != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Prompt      string        `json:"prompt"`
	History     []ChatMessage `json:"history"`
	CurrentHTML string        `json:"current_html,omitempty"`
}

type GenerateResponse struct {
	HTML    string `json:"html"`
	Summary string `json:"summary"`
}

type enhanceRequest struct {
	Prompt string `json:"prompt"`
}

type enhanceResponse struct {
	Prompt string `json:"prompt"`
}

// Generate asks the service for a new version of the page.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var out GenerateResponse
	if err := c.post(ctx, "/v1/generate", req, &out); err != nil {
		return nil, fmt.Errorf("ai generate: %w", err)
	}
	if strings.TrimSpace(out.HTML) == "" {
		return nil, fmt.Errorf("ai generate: empty html in response")
	}
	return &out, nil
}

// Enhance rewrites a rough prompt into a more detailed one.
func (c *Client) Enhance(ctx context.Context, prompt string) (string, error) {
	var out enhanceResponse
	if err := c.post(ctx, "/v1/enhance", enhanceRequest{Prompt: prompt}, &out); err != nil {
		return "", fmt.Errorf("ai enhance: %w", err)
	}
	return out.Prompt, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
