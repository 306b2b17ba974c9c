package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/aiguard"
	"github.com/zatekoja/erwaittime/pkg/config"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.0-flash"
)

// Client implements TextGenerationProvider with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	guard  *aiguard.Guard
}

// NewClient creates a Gemini client authenticated with an API key.
func NewClient(ctx context.Context, cfg *config.GeminiConfig, ai *config.AIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	settings := aiguard.Settings{Provider: providerName, Model: model}
	if ai != nil {
		settings.RateLimitRPM = ai.RateLimitRPM
		settings.RateLimitBurst = ai.RateLimitBurst
	}

	return &Client{client: client, model: model, guard: aiguard.New(settings)}, nil
}

// Name identifies the provider
func (c *Client) Name() string {
	return providerName
}

// Generate asks the model for a JSON answer.
func (c *Client) Generate(ctx context.Context, req providers.TextGenerationRequest) (string, error) {
	return c.guard.Do(ctx, func(ctx context.Context) (string, error) {
		genCfg := &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr(req.Temperature),
		}
		if req.MaxTokens > 0 {
			genCfg.MaxOutputTokens = int32(req.MaxTokens)
		}
		if req.SystemPrompt != "" {
			genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model,
			[]*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)}, genCfg)
		if err != nil {
			return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", errors.New("no response candidates from Gemini")
		}
		return text, nil
	})
}
