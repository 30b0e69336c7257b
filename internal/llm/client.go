// Package llm is a minimal client for an OpenAI-compatible model gateway.
// One call in, one completion out; no conversation state is kept.
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

	"github.com/lotquery/lotquery/internal/observability"
)

// CredentialProvider supplies the gateway API key. The credential is an
// explicit constructor dependency; nothing in this package reads ambient
// process state.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential adapts a fixed key to CredentialProvider.
type StaticCredential string

func (s StaticCredential) Credential(_ context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", fmt.Errorf("credential is empty")
	}
	return string(s), nil
}

type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type Client struct {
	baseURL     string
	model       string
	temperature float64
	credentials CredentialProvider
	client      *http.Client
}

func NewClient(cfg Config, credentials CredentialProvider) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credential provider is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-5"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:       model,
		temperature: cfg.Temperature,
		credentials: credentials,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

// Run sends a single prompt and returns the completion text. The stage label
// only feeds metrics.
func (c *Client) Run(ctx context.Context, stage, prompt string) (string, error) {
	apiKey, err := c.credentials.Credential(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve gateway credential: %w", err)
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	observability.ObserveModelCall(stage, time.Since(start))

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
