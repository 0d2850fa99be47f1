// Package ai turns an aggregated batch into a briefing through an
// OpenAI-compatible chat completions endpoint.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrEmptyResponse is returned when the endpoint answers without a choice.
var ErrEmptyResponse = errors.New("no choices in completion response")

// APIError is a non-2xx answer from the completions endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion API error: %d - %s", e.StatusCode, e.Body)
}

// LLMConfig configures the completions client.
type LLMConfig struct {
	Endpoint    string // base URL, e.g. "https://openrouter.ai/api/v1"
	Model       string // e.g. "anthropic/claude-sonnet-4.5"
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	// Referer and Title identify the application to OpenRouter.
	Referer string
	Title   string
}

// LLMClient talks to a chat completions endpoint.
type LLMClient struct {
	cfg    LLMConfig
	http   *resty.Client
	logger *slog.Logger
}

// NewLLMClient creates a new LLM client.
func NewLLMClient(cfg LLMConfig, logger *slog.Logger) *LLMClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.Endpoint, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	if cfg.Referer != "" {
		client.SetHeader("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		client.SetHeader("X-Title", cfg.Title)
	}

	return &LLMClient{
		cfg:    cfg,
		http:   client,
		logger: logger.With("component", "llm_client"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends one system and one user message and returns the first
// choice. Non-2xx answers are returned as *APIError.
func (c *LLMClient) Generate(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	if system != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: system})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: user})

	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if res.IsError() {
		return "", &APIError{StatusCode: res.StatusCode(), Body: res.String()}
	}

	var result chatResponse
	if err := json.Unmarshal(res.Body(), &result); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Info("completion received",
		"model", c.cfg.Model,
		"duration", time.Since(start).Round(time.Millisecond),
		"chars", len(result.Choices[0].Message.Content),
	)
	return result.Choices[0].Message.Content, nil
}
