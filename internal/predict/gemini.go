// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package predict

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

// GeminiBackend calls the Gemini API in JSON mode. It is the production
// Backend implementation; everything above it only sees raw JSON bytes.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiBackend builds a backend from cfg. The API key must be set.
func NewGeminiBackend(ctx context.Context, cfg types.AIConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is not configured")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiBackend{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
	}, nil
}

// Complete sends one JSON-mode request and returns the response body.
func (g *GeminiBackend) Complete(ctx context.Context, stage, system, user string) ([]byte, error) {
	temp := g.temperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temp,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), cfg)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", stage, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%s request: empty response", stage)
	}
	return []byte(text), nil
}
