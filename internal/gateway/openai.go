package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/athlete-sentinel/sentinel/internal/prompt"
	"github.com/athlete-sentinel/sentinel/pkg/models"
)

// OpenAIBackend drives any OpenAI-compatible chat-completions endpoint:
// api.openai.com itself, or a locally hosted model server exposing
// /v1/chat/completions.
type OpenAIBackend struct {
	name     string
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewOpenAIBackend creates the driver. The API key is mandatory; a missing
// credential is a configuration error the caller must treat as fatal.
func NewOpenAIBackend(name, endpoint, model, apiKey string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai backend %s: api key not configured", name)
	}
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	if model == "" {
		return nil, fmt.Errorf("openai backend %s: model not configured", name)
	}
	return &OpenAIBackend{
		name:     name,
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Kind returns "openai".
func (b *OpenAIBackend) Kind() string { return "openai" }

// Name returns the configured instance name.
func (b *OpenAIBackend) Name() string { return b.name }

type chatCompletionRequest struct {
	Model     string               `json:"model"`
	Messages  []models.ChatMessage `json:"messages"`
	MaxTokens int                  `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt as a two-message chat completion.
func (b *OpenAIBackend) Complete(ctx context.Context, p prompt.Prompt, maxTokens int) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: b.model,
		Messages: []models.ChatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	url := b.endpoint + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	httpResp, err := b.client.Do(httpReq)
	if err != nil {
		return "", &TransportError{Backend: b.name, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return "", &TransportError{
			Backend: b.name,
			Status:  httpResp.StatusCode,
			Err:     fmt.Errorf("%s", string(respBody)),
		}
	}

	var resp chatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", &TransportError{Backend: b.name, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
