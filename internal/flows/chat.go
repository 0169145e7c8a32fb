package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/athlete-sentinel/sentinel/internal/gateway"
	"github.com/athlete-sentinel/sentinel/internal/prompt"
	"github.com/athlete-sentinel/sentinel/pkg/models"
)

// Chat history validation errors. Handlers map these to HTTP 400.
var (
	ErrEmptyHistory   = errors.New("flows: chat history is empty")
	ErrHistoryNotUser = errors.New("flows: chat history must end with a user turn")
)

// ChatReply is the outcome of one chat turn. Reply is always set; Fallback
// is additionally set when the reply did not come from a model.
type ChatReply struct {
	Reply    string            `json:"reply"`
	Backend  string            `json:"backend,omitempty"`
	Fallback *gateway.Fallback `json:"fallback,omitempty"`
}

// Chat produces the assistant's next turn for a conversation history.
//
// When every backend fails the flow degrades to topical canned replies
// keyed off the user's question, so the assistant stays useful offline.
// A service-unavailable outage is the exception: its specific message is
// surfaced as-is so the user knows to retry later.
func (s *Service) Chat(ctx context.Context, history []models.ChatTurn) (*ChatReply, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	last := history[len(history)-1]
	if last.Role != models.ChatRoleUser {
		return nil, ErrHistoryNotUser
	}

	started := time.Now()
	res := s.gw.Generate(ctx, &gateway.Request{
		Flow:     prompt.Chat.Name,
		Template: prompt.Chat,
		History:  history,
		Output:   chatSchema,
	})
	s.observe(prompt.Chat.Name, res, started)

	if res.OK() {
		return &ChatReply{Reply: res.Text, Backend: res.Backend}, nil
	}

	if res.Fallback.Reason == gateway.ReasonServiceUnavailable {
		return &ChatReply{Reply: res.Fallback.Message, Fallback: res.Fallback}, nil
	}
	return &ChatReply{Reply: cannedReply(last.Text), Fallback: res.Fallback}, nil
}

// cannedReply picks a topical reply for the user's question.
func cannedReply(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "injur"):
		return "To prevent injuries: warm up, progress gradually, build strength (especially stabilizers), and recover well. Flag pain early."
	case strings.Contains(q, "train"):
		return "Training tips: set clear goals, use periodization, mix intensity, include rest, and track metrics to adjust."
	case strings.Contains(q, "perform"):
		return "Performance: prioritize sleep, nutrition, and consistency. Use progressive overload and review session RPE and readiness."
	default:
		return "I can help with sport performance, training plans, and injury prevention. Ask about workouts, recovery, or sport-specific tactics."
	}
}
