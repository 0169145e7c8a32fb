package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/athlete-sentinel/sentinel/pkg/models"
)

func sampleFixture() models.SensorSample {
	return models.SensorSample{
		ID:        "sample-1",
		AthleteID: "athlete-1",
		Timestamp: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		Heartrate: 72,
		O2:        98,
		EMG:       0.42,
		Balance:   81,
		Gait:      77,
		Energy:    64,
		AccX:      0.1, AccY: -0.2, AccZ: 9.8,
		GyroX: 1.5, GyroY: -1.5, GyroZ: 0,
	}
}

func TestRender_Deterministic(t *testing.T) {
	input := map[string]any{
		"athleteId":  "athlete-1",
		"sensorData": []models.SensorSample{sampleFixture()},
	}

	first := Readiness.Render(input, nil)
	for i := 0; i < 10; i++ {
		again := Readiness.Render(input, nil)
		if again.System != first.System || again.User != first.User {
			t.Fatalf("render %d differs from first render:\nfirst: %q\nagain: %q", i, first.User, again.User)
		}
	}
}

func TestRender_NumbersInNaturalDecimalForm(t *testing.T) {
	p := InjuryRisk.Render(map[string]any{
		"heartrate": 72.0,
		"o2":        98.5,
		"emg":       0.42,
		"balance":   81.0,
		"gait":      77.0,
		"energy":    64.0,
		"AccX":      0.1, "AccY": -0.2, "AccZ": 9.8,
		"GyroX": 1.5, "GyroY": -1.5, "GyroZ": 0.0,
	}, nil)

	for _, want := range []string{
		"- Heart Rate: 72\n",
		"- Oxygen Saturation: 98.5\n",
		"- EMG: 0.42\n",
		"- Acceleration Y: -0.2\n",
		"- Gyroscope Z: 0\n",
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("rendered prompt missing %q:\n%s", want, p.User)
		}
	}
}

func TestRender_MissingOptionalFieldUsesMarker(t *testing.T) {
	p := Report.Render(map[string]any{
		"athleteId": "athlete-1",
		"timeRange": "last7days",
	}, nil)

	if !strings.Contains(p.User, "- Recorded Results: "+AbsenceMarker) {
		t.Errorf("missing optional field must render %q, got:\n%s", AbsenceMarker, p.User)
	}
	if strings.Contains(p.User, "- Recorded Results: \n") {
		t.Error("missing optional field rendered as empty string")
	}
}

func TestRender_SampleLineShape(t *testing.T) {
	p := Readiness.Render(map[string]any{
		"athleteId":  "athlete-1",
		"sensorData": []models.SensorSample{sampleFixture()},
	}, nil)

	want := "- Timestamp: 2025-06-01T10:30:00Z, Heart Rate: 72, O2: 98, EMG: 0.42, " +
		"Balance: 81, Gait: 77, Energy: 64, AccX: 0.1, AccY: -0.2, AccZ: 9.8, " +
		"GyroX: 1.5, GyroY: -1.5, GyroZ: 0"
	if !strings.Contains(p.User, want) {
		t.Errorf("sample line mismatch.\nwant substring: %s\ngot:\n%s", want, p.User)
	}
}

func TestRender_HistoryTranscript(t *testing.T) {
	history := []models.ChatTurn{
		{Role: models.ChatRoleUser, Text: "How is my stamina trending?"},
		{Role: models.ChatRoleAssistant, Text: "Improving week over week."},
		{Role: models.ChatRoleUser, Text: "What should I focus on next?"},
	}

	p := Chat.Render(nil, history)

	wantOrder := []string{
		"Conversation so far:",
		"User: How is my stamina trending?",
		"Assistant: Improving week over week.",
		"User: What should I focus on next?",
	}
	pos := 0
	for _, want := range wantOrder {
		idx := strings.Index(p.User[pos:], want)
		if idx < 0 {
			t.Fatalf("transcript missing or out of order: %q\n%s", want, p.User)
		}
		pos += idx
	}
	if !strings.HasSuffix(p.User, "Assistant:") {
		t.Errorf("transcript must end with an open assistant line, got:\n%q", p.User)
	}
}

func TestRender_SystemInstructionFixedPerFlow(t *testing.T) {
	a := Chat.Render(nil, []models.ChatTurn{{Role: models.ChatRoleUser, Text: "hi"}})
	b := Chat.Render(nil, []models.ChatTurn{{Role: models.ChatRoleUser, Text: "something else"}})
	if a.System != b.System {
		t.Error("system instruction must not vary with input")
	}
	if !strings.Contains(a.System, "Athlete Sentinel Assistant") {
		t.Errorf("chat persona missing from system instruction: %q", a.System)
	}
}
