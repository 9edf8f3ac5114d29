package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sampling parameters are fixed for quiz generation.
const (
	temperature = 0.7
	maxTokens   = 3000
)

// Client calls the Azure OpenAI chat-completions API for one configured
// deployment. Output is sampled (temperature > 0), so calls are not
// idempotent; a failed call is a failed request, no retry is attempted.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	deployment string
	httpClient *http.Client

	// Stats, when set, records latency and token usage per successful call.
	Stats *RequestStats
}

func NewClient(endpoint, apiKey, apiVersion, deployment string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		apiVersion: apiVersion,
		deployment: deployment,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ServiceError reports a transport, authentication, quota, or service-side
// failure from the completion service.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion service: %v", e.Err)
	}
	return fmt.Sprintf("completion service status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

func (e *ServiceError) Unwrap() error { return e.Err }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the system instruction and prompt to the deployment and
// returns the raw textual completion.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	reqBody := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &ServiceError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &ServiceError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if apiResp.Error != nil {
		return "", &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s: %s", apiResp.Error.Code, apiResp.Error.Message),
		}
	}
	if len(apiResp.Choices) == 0 {
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: "empty completion"}
	}

	if c.Stats != nil {
		c.Stats.Record(time.Since(start).Milliseconds(),
			apiResp.Usage.PromptTokens, apiResp.Usage.CompletionTokens)
	}

	return apiResp.Choices[0].Message.Content, nil
}

// Deployment returns the configured deployment identity.
func (c *Client) Deployment() string {
	return c.deployment
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
