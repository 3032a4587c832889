// Package llm provides structured text-classification calls against an
// OpenAI-compatible API.
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

	"github.com/basehelp/basehelp/internal/config"
)

// Client calls an OpenAI-compatible chat completions endpoint and
// parses JSON-object responses.
type Client struct {
	apiKey     string
	apiBase    string
	model      string
	httpClient *http.Client
}

// NewClient creates a classification client from config.
func NewClient(cfg config.LLMConfig) *Client {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	return &Client{
		apiKey:  cfg.APIKey,
		apiBase: strings.TrimSuffix(apiBase, "/"),
		model:   cfg.ClassifierModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// classify sends prompt and reads a single boolean field out of the
// model's JSON object reply.
func (c *Client) classify(ctx context.Context, prompt, field string) (bool, error) {
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return false, err
	}
	var verdict map[string]bool
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return false, fmt.Errorf("parse classification object: %w", err)
	}
	v, ok := verdict[field]
	if !ok {
		return false, fmt.Errorf("classification object missing %q field", field)
	}
	return v, nil
}

// complete sends one user message in JSON-object response mode and
// returns the reply content.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]any{"type": "json_object"},
		"temperature":     0,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("API error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return apiResp.Choices[0].Message.Content, nil
}
