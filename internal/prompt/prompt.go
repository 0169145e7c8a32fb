// Package prompt renders deterministic prompts for the generation gateway.
//
// Rendering is pure and total: for identical inputs the output text is
// byte-identical across calls. Fields are interpolated in their declared
// order, numbers render in natural decimal form, and a missing optional
// field renders an explicit absence marker rather than an empty string.
package prompt

import (
	"strconv"
	"strings"

	"github.com/athlete-sentinel/sentinel/pkg/models"
)

// AbsenceMarker is rendered for declared-but-missing optional values so the
// model never mistakes a gap for a legitimate empty reading.
const AbsenceMarker = "(not recorded)"

// Prompt is a rendered system instruction plus user content, ready to send
// to a model backend.
type Prompt struct {
	System string
	User   string
}

// FieldSpec declares one scalar input interpolated into the prompt body.
type FieldSpec struct {
	Key      string // input map key
	Label    string // human label rendered before the value
	Optional bool
}

// SampleBlock declares a repeated sensor-sample section. The input value
// under Key must be a []models.SensorSample.
type SampleBlock struct {
	Key     string
	Heading string
}

// Template is a fixed prompt layout for one flow: an instruction block, the
// interpolated data, and a closing instruction block.
type Template struct {
	Name    string
	System  string
	Intro   string
	Fields  []FieldSpec
	Samples *SampleBlock
	Outro   string
}

// Render interpolates the input (and, for conversational templates, the
// history) into the template. The same input always yields the same text.
func (t *Template) Render(input map[string]any, history []models.ChatTurn) Prompt {
	var b strings.Builder

	if t.Intro != "" {
		b.WriteString(t.Intro)
		b.WriteString("\n")
	}

	for _, f := range t.Fields {
		b.WriteString("- ")
		b.WriteString(f.Label)
		b.WriteString(": ")
		b.WriteString(renderValue(input[f.Key], f.Optional))
		b.WriteString("\n")
	}

	if t.Samples != nil {
		b.WriteString("\n")
		b.WriteString(t.Samples.Heading)
		b.WriteString("\n")
		samples, _ := input[t.Samples.Key].([]models.SensorSample)
		for _, s := range samples {
			b.WriteString(renderSample(s))
			b.WriteString("\n")
		}
	}

	if len(history) > 0 {
		b.WriteString(renderHistory(history))
	}

	if t.Outro != "" {
		b.WriteString("\n")
		b.WriteString(t.Outro)
		b.WriteString("\n")
	}

	return Prompt{System: t.System, User: b.String()}
}

// renderValue has a defined textual form for every value a flow may supply.
func renderValue(v any, optional bool) string {
	switch x := v.(type) {
	case nil:
		if optional {
			return AbsenceMarker
		}
		return ""
	case string:
		if x == "" && optional {
			return AbsenceMarker
		}
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		if optional {
			return AbsenceMarker
		}
		return ""
	}
}

func renderSample(s models.SensorSample) string {
	parts := []string{
		"Timestamp: " + s.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		"Heart Rate: " + num(s.Heartrate),
		"O2: " + num(s.O2),
		"EMG: " + num(s.EMG),
		"Balance: " + num(s.Balance),
		"Gait: " + num(s.Gait),
		"Energy: " + num(s.Energy),
		"AccX: " + num(s.AccX),
		"AccY: " + num(s.AccY),
		"AccZ: " + num(s.AccZ),
		"GyroX: " + num(s.GyroX),
		"GyroY: " + num(s.GyroY),
		"GyroZ: " + num(s.GyroZ),
	}
	return "- " + strings.Join(parts, ", ")
}

// renderHistory renders a conversation as a transcript ending with an open
// assistant line, the form the chat flow submits for a new reply.
func renderHistory(history []models.ChatTurn) string {
	var b strings.Builder
	b.WriteString("\nConversation so far:\n")
	for _, turn := range history {
		switch turn.Role {
		case models.ChatRoleAssistant:
			b.WriteString("Assistant: ")
		case models.ChatRoleSystem:
			b.WriteString("System: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
