// Package client provides an HTTP client for the Master Chat server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/masterchat/internal/models"
)

// Client talks to the Master Chat relay API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client.
// If baseURL is empty, uses MASTERCHAT_SERVER_URL env var or defaults to localhost:8787.
// Timeout can be configured via MASTERCHAT_CLIENT_TIMEOUT env var (default 2m for LLM calls).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("MASTERCHAT_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8787"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 2 * time.Minute
	if t := os.Getenv("MASTERCHAT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type promptRequest struct {
	SystemPrompt string `json:"systemPrompt"`
	UserPrompt   string `json:"userPrompt"`
}

type continueRequest struct {
	SystemPrompt string `json:"systemPrompt"`
	Conversation string `json:"conversation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StartChat opens a conversation and returns the master's greeting.
func (c *Client) StartChat(ctx context.Context, systemPrompt, userPrompt string) (models.ChatTurn, error) {
	var turn models.ChatTurn
	err := c.post(ctx, "/api/start-chat", promptRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	}, &turn)
	return turn, err
}

// ContinueChat sends a flattened conversation and returns the master's reply.
func (c *Client) ContinueChat(ctx context.Context, systemPrompt, conversation string) (models.ChatTurn, error) {
	var turn models.ChatTurn
	err := c.post(ctx, "/api/continue-chat", continueRequest{
		SystemPrompt: systemPrompt,
		Conversation: conversation,
	}, &turn)
	return turn, err
}

// GenerateReading asks for a structured reading and returns the raw JSON payload.
func (c *Client) GenerateReading(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := c.postRaw(ctx, "/api/generate-fortune", promptRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// HealthStatus is the health endpoint's payload.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return status, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return status, serverError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, fmt.Errorf("parsing response: %w", err)
	}
	return status, nil
}

func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	body, err := c.postRaw(ctx, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func (c *Client) postRaw(ctx context.Context, path string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp.StatusCode, body)
	}
	return body, nil
}

func serverError(status int, body []byte) error {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server error: %d - %s", status, payload.Error)
	}
	return fmt.Errorf("server error: %d - %s", status, strings.TrimSpace(string(body)))
}
