// Package llm provides the opaque text-completion collaborator: a prompt
// goes in, completion text and the label of the provider that answered
// come out. Model choice and prompt phrasing live with the callers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/metrics"
)

// ErrNoProviders is the one configuration failure that prevents runs from
// starting: no completion backend is configured at all.
var ErrNoProviders = errors.New("llm: no completion providers configured")

// Client is the completion contract consumed by the drafting, revision and
// judging stages.
type Client interface {
	Complete(ctx context.Context, prompt string) (text string, provider string, err error)
}

// Provider is one OpenAI-compatible chat completion backend.
type Provider struct {
	Name    string
	BaseURL string
	Model   string
	APIKey  string
}

// ChainClient tries each configured provider in order and returns the
// first successful completion.
type ChainClient struct {
	providers  []Provider
	httpClient *http.Client
	logger     *zap.Logger
}

// NewChainClient builds a provider-chain client. Providers without an API
// key are skipped at construction; zero usable providers is a hard error.
func NewChainClient(providers []Provider, logger *zap.Logger) (*ChainClient, error) {
	usable := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.APIKey != "" {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoProviders
	}
	return &ChainClient{
		providers:  usable,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

// Providers returns the names of usable providers in chain order.
func (c *ChainClient) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name
	}
	return names
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete walks the provider chain until one answers.
func (c *ChainClient) Complete(ctx context.Context, prompt string) (string, string, error) {
	var lastErr error
	for _, p := range c.providers {
		text, err := c.completeWith(ctx, p, prompt)
		if err != nil {
			metrics.CompletionCalls.WithLabelValues(p.Name, "error").Inc()
			c.logger.Warn("Completion provider failed",
				zap.String("provider", p.Name),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		metrics.CompletionCalls.WithLabelValues(p.Name, "ok").Inc()
		return text, p.Name, nil
	}
	return "", "", fmt.Errorf("all providers failed: %w", lastErr)
}

func (c *ChainClient) completeWith(ctx context.Context, p Provider, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       p.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s status %d: %s", p.Name, resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s decode: %w", p.Name, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s: %s", p.Name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: empty completion", p.Name)
	}
	return parsed.Choices[0].Message.Content, nil
}
