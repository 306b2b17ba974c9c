package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/aiguard"
	"github.com/zatekoja/erwaittime/pkg/config"
)

const (
	providerName   = "groq"
	defaultModel   = "llama3-70b-8192"
	defaultBaseURL = "https://api.groq.com/openai/v1"
)

// Client implements TextGenerationProvider against an OpenAI-compatible chat
// completions endpoint (Groq by default).
type Client struct {
	client *goopenai.Client
	model  string
	guard  *aiguard.Guard
}

// NewClient creates a new chat completions client.
func NewClient(cfg *config.GroqConfig, ai *config.AIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("groq api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{Timeout: 20 * time.Second}

	settings := aiguard.Settings{Provider: providerName, Model: model}
	if ai != nil {
		settings.RateLimitRPM = ai.RateLimitRPM
		settings.RateLimitBurst = ai.RateLimitBurst
	}

	return &Client{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		guard:  aiguard.New(settings),
	}, nil
}

// Name identifies the provider
func (c *Client) Name() string {
	return providerName
}

// Generate sends one system and one user message and returns the raw reply.
func (c *Client) Generate(ctx context.Context, req providers.TextGenerationRequest) (string, error) {
	return c.guard.Do(ctx, func(ctx context.Context) (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
			Model: c.model,
			Messages: []goopenai.ChatCompletionMessage{
				{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt},
				{Role: goopenai.ChatMessageRoleUser, Content: req.UserPrompt},
			},
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			ResponseFormat: &goopenai.ChatCompletionResponseFormat{
				Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return "", classify(err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return "", errors.New("chat completion returned no content")
		}
		return resp.Choices[0].Message.Content, nil
	})
}

func classify(err error) error {
	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: request rejected with status %d", providers.ErrTextGenerationUnavailable, status)
	}
	return fmt.Errorf("chat completion failed: %w", err)
}
