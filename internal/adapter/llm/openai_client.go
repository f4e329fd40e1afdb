// Package llm implements the language-model collaborator against any
// OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:     "https://api.openai.com/v1",
		APIKey:      apiKey,
		Model:       "gpt-4o",
		Temperature: 0.7,
		MaxTokens:   4000,
		Timeout:     60 * time.Second,
	}
}

type OpenAIClient struct {
	config     Config
	httpClient *http.Client
}

func NewOpenAIClient(config Config) *OpenAIClient {
	return &OpenAIClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the raw completion text. The schema
// hint rides along as a system message; callers must still validate the
// output, which carries no structural guarantee.
func (c *OpenAIClient) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	var messages []chatMessage
	if schemaHint != "" {
		messages = append(messages, chatMessage{Role: "system", Content: schemaHint})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody := chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if completion.Error != nil {
		return "", fmt.Errorf("API error: %s (%s)", completion.Error.Message, completion.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return completion.Choices[0].Message.Content, nil
}
