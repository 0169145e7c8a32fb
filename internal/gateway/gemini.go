package gateway

import (
	"context"
	"fmt"

	"github.com/athlete-sentinel/sentinel/internal/prompt"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// geminiModelChain is the default model preference order: newest first,
// older models as in-driver fallbacks when a model is unavailable.
var geminiModelChain = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
}

// GeminiBackend drives the hosted Gemini API through the Google Gen AI SDK.
// It tries each model in its chain in order before giving up, so a request
// survives a single model being deprecated or overloaded.
type GeminiBackend struct {
	name   string
	models []string
	client *genai.Client
}

// NewGeminiBackend creates the driver. The API key is mandatory.
func NewGeminiBackend(ctx context.Context, name, apiKey string, modelChain []string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini backend %s: api key not configured", name)
	}
	if len(modelChain) == 0 {
		modelChain = geminiModelChain
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini backend %s: create client: %w", name, err)
	}

	return &GeminiBackend{
		name:   name,
		models: modelChain,
		client: client,
	}, nil
}

// Kind returns "gemini".
func (b *GeminiBackend) Kind() string { return "gemini" }

// Name returns the configured instance name.
func (b *GeminiBackend) Name() string { return b.name }

// Complete sends the prompt to the first model in the chain that answers.
func (b *GeminiBackend) Complete(ctx context.Context, p prompt.Prompt, maxTokens int) (string, error) {
	temp := float32(0.7)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   int32(maxTokens),
	}

	contents := []*genai.Content{
		genai.NewContentFromText(p.User, genai.RoleUser),
	}

	var lastErr error
	for _, model := range b.models {
		res, err := b.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			log.Warn().Str("backend", b.name).Str("model", model).Err(err).Msg("Gemini model failed, trying next")
			lastErr = err
			continue
		}
		return res.Text(), nil
	}

	return "", &TransportError{Backend: b.name, Err: fmt.Errorf("all models failed: %w", lastErr)}
}
