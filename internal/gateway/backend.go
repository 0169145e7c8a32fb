package gateway

import (
	"context"
	"fmt"

	"github.com/athlete-sentinel/sentinel/internal/prompt"
)

// Backend is a pluggable model driver: rendered prompt in, raw text or
// error out. The gateway tries its configured backends in order until one
// returns content, so adding a provider means implementing this interface
// and registering it in the chain.
type Backend interface {
	// Kind identifies the driver family ("openai", "gemini").
	Kind() string

	// Name identifies the configured instance for logs and metrics.
	Name() string

	// Complete sends the prompt and returns the generated text. Transport
	// failures should be returned as *TransportError so the gateway can
	// classify them; an empty string with a nil error is a valid outcome
	// (the model produced no content).
	Complete(ctx context.Context, p prompt.Prompt, maxTokens int) (string, error)
}

// TransportError is a failed exchange with a model endpoint. Status carries
// the HTTP status code when one was received, and 0 for connection-level
// failures (timeout, refused connection, DNS).
type TransportError struct {
	Backend string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Backend, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
