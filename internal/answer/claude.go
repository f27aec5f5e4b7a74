package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CollaboratorError is a failure of an external collaborator (answer
// generation or paper search). Retryable errors may be re-attempted once;
// authorization failures never are.
type CollaboratorError struct {
	Kind      string // timeout, rate_limited, invalid_key, invalid_response, unavailable
	Message   string
	Retryable bool
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator error (%s): %s", e.Kind, e.Message)
}

// IsRetryable reports whether an error is a transient collaborator
// failure worth one immediate re-attempt.
func IsRetryable(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Retryable
}

// Generator is the external answer-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ClaudeClient calls the Anthropic Messages API to generate answers.
type ClaudeClient struct {
	apiKey     string
	model      string
	httpClient *http.Client

	Stats *Stats
}

func NewClaudeClient(apiKey, model string, timeout time.Duration) *ClaudeClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		Stats:      NewStats(time.Hour),
	}
}

func (c *ClaudeClient) Model() string {
	return c.model
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends a composed request and returns the raw answer text.
// Provider failures surface as CollaboratorError; the caller decides
// whether to re-attempt (at most once, and never on invalid_key).
func (c *ClaudeClient) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, req)
	c.Stats.Record(OpGenerate, time.Since(start), err != nil)
	return text, err
}

func (c *ClaudeClient) generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: 2048,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		kind := "unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			kind = "timeout"
		}
		return "", &CollaboratorError{Kind: kind, Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &CollaboratorError{Kind: "invalid_response", Message: fmt.Sprintf("read response: %s", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &CollaboratorError{Kind: "invalid_key", Message: truncate(string(respBody), 200)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &CollaboratorError{Kind: "rate_limited", Message: truncate(string(respBody), 200), Retryable: true}
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return "", &CollaboratorError{Kind: "timeout", Message: truncate(string(respBody), 200), Retryable: true}
	case resp.StatusCode >= 500:
		return "", &CollaboratorError{Kind: "unavailable", Message: truncate(string(respBody), 200), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("claude api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &CollaboratorError{Kind: "invalid_response", Message: err.Error()}
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 || apiResp.Content[0].Text == "" {
		return "", &CollaboratorError{Kind: "invalid_response", Message: "empty response"}
	}
	return apiResp.Content[0].Text, nil
}

// Close releases resources.
func (c *ClaudeClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
