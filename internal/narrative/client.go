// Package narrative turns a descriptor bundle into a prose trading
// report via an OpenAI-compatible chat completions API.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"aurum/internal/domain"
	"aurum/pkg/backoff"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Generator produces a prose report from a bundle.
type Generator interface {
	Generate(ctx context.Context, bundle domain.Bundle) (string, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint
// (OpenRouter in the default configuration).
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      backoff.Policy
	logger     *zap.Logger
}

// NewClient builds a narrative client. apiURL must point at the full
// chat completions path.
func NewClient(apiURL, apiKey, model string, logger *zap.Logger) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retry:      backoff.Default(),
		logger:     logger,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Generate builds the prompts, calls the API with retries, and returns
// the model's report text.
func (c *Client) Generate(ctx context.Context, bundle domain.Bundle) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("narrative: API key is empty")
	}

	userPrompt, err := BuildUserPrompt(bundle)
	if err != nil {
		return "", errors.Wrap(err, "narrative: build prompt")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}

	report, err := backoff.RetryWithData(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.send(ctx, reqBody)
	})
	if err != nil {
		return "", errors.Wrap(err, "narrative: generate report")
	}

	c.logger.Debug("narrative generated",
		zap.String("model", c.model),
		zap.Int("chars", len(report)))
	return report, nil
}

func (c *Client) send(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read body")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", errors.Wrap(err, "unmarshal response")
	}
	if chatResp.Error != nil {
		return "", errors.Errorf("api error: %s (type: %s, code: %s)",
			chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	if chatResp.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion")
	}
	return chatResp.Choices[0].Message.Content, nil
}
