// Package gateway implements the structured generation gateway.
//
// The gateway turns a typed request — a prompt template, input fields, and
// an output schema — into a schema-validated result from a hosted text
// model. Every failure mode is converted into a classified, user-presentable
// fallback: callers never see a transport error, a raw provider payload, or
// partially valid data.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/athlete-sentinel/sentinel/internal/prompt"
	"github.com/athlete-sentinel/sentinel/internal/schema"
	"github.com/athlete-sentinel/sentinel/pkg/models"
	"github.com/rs/zerolog/log"
)

// Reason classifies why a generation attempt fell back.
type Reason string

const (
	ReasonNetworkError       Reason = "network_error"
	ReasonServiceUnavailable Reason = "service_unavailable"
	ReasonInvalidOutput      Reason = "invalid_output"
	ReasonSchemaMismatch     Reason = "schema_mismatch"
)

// User-facing fallback messages. These are complete, polite sentences ready
// to render in the dashboard; callers never need to translate a reason code.
const (
	MsgServiceUnavailable = "The AI service is temporarily unavailable. Please try again in a few minutes."
	MsgNetworkError       = "I apologize, but I'm having trouble processing your request. Please try again later."
	MsgNoResponse         = "I don't have a response for that right now."
	MsgSchemaMismatch     = "The analysis service returned an unexpected result. Please try again."
)

// ErrNoBackends is returned by New when the chain is empty. This is a fatal
// configuration condition: the process should refuse to start rather than
// degrade every call at runtime.
var ErrNoBackends = errors.New("gateway: no model backends configured")

// Request describes one generation call.
type Request struct {
	// Flow names the calling flow for logs and metrics.
	Flow string

	// Template renders the prompt; Input supplies the declared fields and
	// History the conversation transcript, when the template uses one.
	Template *prompt.Template
	Input    map[string]any
	History  []models.ChatTurn

	// InputSchema, when set, type-checks Input before rendering. Domain
	// validity (a plausible heart rate, say) remains the caller's job.
	InputSchema *schema.Schema

	// Output declares the expected response shape. A plain-text schema
	// accepts any non-empty string; a structured schema is enforced field
	// by field with no coercion and no defaults.
	Output *schema.Schema

	// MaxTokens overrides the gateway default when > 0.
	MaxTokens int
}

// Fallback is a well-formed substitute result carrying a displayable
// message and the classified reason.
type Fallback struct {
	Message string `json:"message"`
	Reason  Reason `json:"reason"`
}

// Result is the outcome of Generate. Exactly one of the success fields
// (Text or Fields, depending on the output schema) or Fallback is set.
type Result struct {
	Text     string
	Fields   map[string]any
	Backend  string
	Fallback *Fallback
}

// OK reports whether the result is a validated success.
func (r *Result) OK() bool { return r.Fallback == nil }

// Gateway sends generation requests through an ordered backend chain.
// It is stateless per call: no retries, no caching, a fresh prompt and a
// fresh invocation every time.
type Gateway struct {
	backends  []Backend
	timeout   time.Duration
	maxTokens int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTimeout bounds each generation call. Expiry is classified as a
// network failure; an unbounded hang is never acceptable for a
// user-facing assistant.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithMaxTokens sets the default completion budget.
func WithMaxTokens(n int) Option {
	return func(g *Gateway) { g.maxTokens = n }
}

// New creates a Gateway over the given backend chain. Backends are tried in
// the order given. An empty chain is ErrNoBackends.
func New(backends []Backend, opts ...Option) (*Gateway, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}
	g := &Gateway{
		backends:  backends,
		timeout:   30 * time.Second,
		maxTokens: 256,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Backends lists the configured chain, in order, as "kind/name" pairs.
func (g *Gateway) Backends() []string {
	out := make([]string, 0, len(g.backends))
	for _, b := range g.backends {
		out = append(out, b.Kind()+"/"+b.Name())
	}
	return out
}

// Generate runs one generation call. It never returns an error: every
// failure branch produces a classified Fallback instead.
func (g *Gateway) Generate(ctx context.Context, req *Request) *Result {
	if req.InputSchema != nil && !req.InputSchema.Text {
		if err := req.InputSchema.Validate(req.Input); err != nil {
			// A caller handed us inputs that don't satisfy its own declared
			// schema. Surface it as a mismatch rather than crash.
			log.Error().Str("flow", req.Flow).Err(err).Msg("Generation input failed its declared schema")
			return &Result{Fallback: &Fallback{Message: MsgSchemaMismatch, Reason: ReasonSchemaMismatch}}
		}
	}

	p := req.Template.Render(req.Input, req.History)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var lastErr error
	for _, b := range g.backends {
		text, err := b.Complete(callCtx, p, maxTokens)
		if err != nil {
			log.Warn().
				Str("flow", req.Flow).
				Str("backend", b.Name()).
				Str("kind", b.Kind()).
				Err(err).
				Msg("Backend call failed, trying next")
			lastErr = err
			continue
		}
		// The endpoint answered: parse its content against the output
		// schema. A bad payload is terminal, not a reason to re-ask
		// another backend — one attempt produces one result.
		res := g.parse(req, text)
		res.Backend = b.Name()
		return res
	}

	return &Result{Fallback: classify(lastErr)}
}

// parse checks returned content against the request's output schema.
func (g *Gateway) parse(req *Request, text string) *Result {
	text = strings.TrimSpace(text)

	if req.Output == nil || req.Output.Text {
		if text == "" {
			return &Result{Fallback: &Fallback{Message: MsgNoResponse, Reason: ReasonInvalidOutput}}
		}
		return &Result{Text: text}
	}

	if text == "" {
		return &Result{Fallback: &Fallback{Message: MsgNoResponse, Reason: ReasonInvalidOutput}}
	}

	payload, err := decodeObject(text)
	if err != nil {
		log.Warn().Str("flow", req.Flow).Err(err).Msg("Model output is not a structured payload")
		return &Result{Fallback: &Fallback{Message: MsgSchemaMismatch, Reason: ReasonSchemaMismatch}}
	}

	if err := req.Output.Validate(payload); err != nil {
		log.Warn().Str("flow", req.Flow).Err(err).Msg("Model output failed schema validation")
		return &Result{Fallback: &Fallback{Message: MsgSchemaMismatch, Reason: ReasonSchemaMismatch}}
	}

	return &Result{Fields: payload}
}

// decodeObject extracts a JSON object from model output, tolerating the
// markdown code fences and surrounding prose models habitually add.
func decodeObject(text string) (map[string]any, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// classify maps the final transport failure to a fallback. A 503-class
// response is distinguished from every other failure so the user sees a
// "temporarily unavailable" message instead of a generic apology.
func classify(err error) *Fallback {
	var te *TransportError
	if errors.As(err, &te) && te.Status == 503 {
		return &Fallback{Message: MsgServiceUnavailable, Reason: ReasonServiceUnavailable}
	}
	return &Fallback{Message: MsgNetworkError, Reason: ReasonNetworkError}
}
