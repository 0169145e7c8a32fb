package flows

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/athlete-sentinel/sentinel/internal/gateway"
	"github.com/athlete-sentinel/sentinel/internal/store"
	"github.com/athlete-sentinel/sentinel/pkg/models"
)

const validScores = `{"fitnessScore": 80, "staminaScore": 75, "strengthScore": 85,
	"reflexScore": 90, "neuralScore": 70, "stressScore": 30}`

const validPrediction = `{"fitnessScore": 80, "staminaScore": 75, "strengthScore": 85,
	"reflexScore": 90, "neuralScore": 70, "stressScore": 30,
	"injuryRiskPercent": 15, "predictedInjuryPart": "knee"}`

// completionHandler returns an OpenAI-shaped chat completion carrying the
// given content.
func completionHandler(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func statusHandler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unhappy", status)
	}
}

// newTestService wires a Service over an in-memory store and a single mock
// backend serving the given handler.
func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *store.MemoryStore) {
	t.Helper()
	t.Setenv("SENTINEL_DATA_DIR", "off")

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	backend, err := gateway.NewOpenAIBackend("mock", srv.URL, "test-model", "test-key")
	if err != nil {
		t.Fatalf("NewOpenAIBackend() error = %v", err)
	}
	gw, err := gateway.New([]gateway.Backend{backend})
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}

	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })
	return New(gw, st, nil), st
}

func addSample(t *testing.T, st *store.MemoryStore, athleteID string) models.SensorSample {
	t.Helper()
	sample := models.SensorSample{
		ID:        "sample-1",
		AthleteID: athleteID,
		Timestamp: time.Now().UTC(),
		Heartrate: 72, O2: 98, EMG: 0.4, Balance: 80, Gait: 75, Energy: 60,
	}
	if err := st.AddSample(context.Background(), &sample); err != nil {
		t.Fatalf("AddSample() error = %v", err)
	}
	return sample
}

// ── Readiness ────────────────────────────────────────────────

func TestAssessReadinessSuccessPersistsResult(t *testing.T) {
	svc, st := newTestService(t, completionHandler(validScores))
	addSample(t, st, "athlete-1")
	ctx := context.Background()

	got, err := svc.AssessReadiness(ctx, "athlete-1")
	if err != nil {
		t.Fatalf("AssessReadiness() error = %v", err)
	}
	if got.Fallback != nil {
		t.Fatalf("AssessReadiness() fallback = %+v, want success", got.Fallback)
	}
	if got.Scores.FitnessScore != 80 || got.Scores.StressScore != 30 {
		t.Fatalf("AssessReadiness() scores = %+v", got.Scores)
	}
	if got.Backend != "mock" {
		t.Fatalf("AssessReadiness() backend = %q", got.Backend)
	}

	results, err := st.ListResults(ctx, "athlete-1", 0)
	if err != nil {
		t.Fatalf("ListResults() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("stored %d results, want 1", len(results))
	}
	if results[0].ID != got.ResultID || results[0].SourceDataID != "sample-1" {
		t.Fatalf("stored result = %+v", results[0])
	}
}

func TestAssessReadinessNoSamples(t *testing.T) {
	svc, _ := newTestService(t, completionHandler(validScores))

	_, err := svc.AssessReadiness(context.Background(), "athlete-1")
	if err != ErrNoSamples {
		t.Fatalf("AssessReadiness() error = %v, want ErrNoSamples", err)
	}
}

func TestAssessReadinessFallbackNotPersisted(t *testing.T) {
	svc, st := newTestService(t, statusHandler(http.StatusServiceUnavailable))
	addSample(t, st, "athlete-1")
	ctx := context.Background()

	got, err := svc.AssessReadiness(ctx, "athlete-1")
	if err != nil {
		t.Fatalf("AssessReadiness() error = %v", err)
	}
	if got.Fallback == nil || got.Fallback.Reason != gateway.ReasonServiceUnavailable {
		t.Fatalf("AssessReadiness() fallback = %+v", got.Fallback)
	}

	results, _ := st.ListResults(ctx, "athlete-1", 0)
	if len(results) != 0 {
		t.Fatalf("fallback run stored %d results, want 0", len(results))
	}
}

// ── Injury risk ──────────────────────────────────────────────

func TestPredictInjuryRiskSuccess(t *testing.T) {
	svc, st := newTestService(t, completionHandler(validPrediction))
	ctx := context.Background()
	sample := models.SensorSample{ID: "s1", AthleteID: "athlete-1", Heartrate: 140, O2: 95}

	got, err := svc.PredictInjuryRisk(ctx, sample)
	if err != nil {
		t.Fatalf("PredictInjuryRisk() error = %v", err)
	}
	if got.Fallback != nil {
		t.Fatalf("PredictInjuryRisk() fallback = %+v, want success", got.Fallback)
	}
	if got.Prediction.InjuryRiskPercent != 15 || got.Prediction.PredictedInjuryPart != "knee" {
		t.Fatalf("PredictInjuryRisk() prediction = %+v", got.Prediction)
	}

	// Named athlete: the prediction is recorded.
	results, _ := st.ListResults(ctx, "athlete-1", 0)
	if len(results) != 1 || results[0].PredictedInjuryPart != "knee" {
		t.Fatalf("stored results = %+v", results)
	}
}

func TestPredictInjuryRiskAnonymousNotPersisted(t *testing.T) {
	svc, st := newTestService(t, completionHandler(validPrediction))
	ctx := context.Background()

	got, err := svc.PredictInjuryRisk(ctx, models.SensorSample{Heartrate: 140})
	if err != nil {
		t.Fatalf("PredictInjuryRisk() error = %v", err)
	}
	if got.Fallback != nil {
		t.Fatalf("PredictInjuryRisk() fallback = %+v", got.Fallback)
	}

	results, _ := st.ListResults(ctx, "", 0)
	if len(results) != 0 {
		t.Fatalf("anonymous run stored %d results, want 0", len(results))
	}
}

func TestPredictInjuryRiskBadPayload(t *testing.T) {
	svc, _ := newTestService(t, completionHandler(`{"fitnessScore": 80}`))

	got, err := svc.PredictInjuryRisk(context.Background(), models.SensorSample{Heartrate: 140})
	if err != nil {
		t.Fatalf("PredictInjuryRisk() error = %v", err)
	}
	if got.Fallback == nil || got.Fallback.Reason != gateway.ReasonSchemaMismatch {
		t.Fatalf("PredictInjuryRisk() fallback = %+v, want schema mismatch", got.Fallback)
	}
}

// ── Chat ─────────────────────────────────────────────────────

func TestChatSuccess(t *testing.T) {
	svc, _ := newTestService(t, completionHandler("Keep your training consistent this week."))

	got, err := svc.Chat(context.Background(), []models.ChatTurn{
		{Role: models.ChatRoleUser, Text: "How should I train this week?"},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got.Fallback != nil {
		t.Fatalf("Chat() fallback = %+v, want success", got.Fallback)
	}
	if got.Reply != "Keep your training consistent this week." {
		t.Fatalf("Chat() reply = %q", got.Reply)
	}
}

func TestChatHistoryValidation(t *testing.T) {
	svc, _ := newTestService(t, completionHandler("unused"))
	ctx := context.Background()

	if _, err := svc.Chat(ctx, nil); err != ErrEmptyHistory {
		t.Fatalf("Chat(empty) error = %v, want ErrEmptyHistory", err)
	}

	history := []models.ChatTurn{
		{Role: models.ChatRoleUser, Text: "hi"},
		{Role: models.ChatRoleAssistant, Text: "hello"},
	}
	if _, err := svc.Chat(ctx, history); err != ErrHistoryNotUser {
		t.Fatalf("Chat(assistant-last) error = %v, want ErrHistoryNotUser", err)
	}
}

func TestChatKeywordFallback(t *testing.T) {
	svc, _ := newTestService(t, statusHandler(http.StatusInternalServerError))

	got, err := svc.Chat(context.Background(), []models.ChatTurn{
		{Role: models.ChatRoleUser, Text: "How do I avoid injuries?"},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got.Fallback == nil || got.Fallback.Reason != gateway.ReasonNetworkError {
		t.Fatalf("Chat() fallback = %+v", got.Fallback)
	}
	if got.Reply == "" || got.Reply == gateway.MsgNetworkError {
		t.Fatalf("Chat() reply = %q, want topical canned reply", got.Reply)
	}
}

func TestChatServiceUnavailableSurfacesMessage(t *testing.T) {
	svc, _ := newTestService(t, statusHandler(http.StatusServiceUnavailable))

	got, err := svc.Chat(context.Background(), []models.ChatTurn{
		{Role: models.ChatRoleUser, Text: "anything"},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got.Reply != gateway.MsgServiceUnavailable {
		t.Fatalf("Chat() reply = %q, want service-unavailable message", got.Reply)
	}
}

// ── Report ───────────────────────────────────────────────────

func TestGeneratePerformanceReport(t *testing.T) {
	svc, st := newTestService(t, completionHandler("Solid week overall. Keep the easy days easy."))
	ctx := context.Background()

	result := models.AnalysisResult{
		ID: "r1", AthleteID: "athlete-1", Timestamp: time.Now().UTC(),
		ScoreSet: models.ScoreSet{FitnessScore: 80},
	}
	if err := st.AddResult(ctx, &result); err != nil {
		t.Fatalf("AddResult() error = %v", err)
	}

	got, err := svc.GeneratePerformanceReport(ctx, "athlete-1", "last 7 days")
	if err != nil {
		t.Fatalf("GeneratePerformanceReport() error = %v", err)
	}
	if got.Fallback != nil {
		t.Fatalf("GeneratePerformanceReport() fallback = %+v", got.Fallback)
	}
	if got.Report == "" {
		t.Fatalf("GeneratePerformanceReport() returned empty report")
	}
}

// ── Team ─────────────────────────────────────────────────────

func TestAssessTeam(t *testing.T) {
	svc, st := newTestService(t, completionHandler(validScores))
	ctx := context.Background()

	team := models.Team{
		ID: "team-1", TeamName: "Varsity Football", CoachID: "coach-1",
		AthleteIDs: []string{"athlete-1", "athlete-2"},
	}
	if err := st.UpsertTeam(ctx, &team); err != nil {
		t.Fatalf("UpsertTeam() error = %v", err)
	}
	addSample(t, st, "athlete-1")
	// athlete-2 has no samples and must be skipped, not failed.

	got, err := svc.AssessTeam(ctx, "team-1")
	if err != nil {
		t.Fatalf("AssessTeam() error = %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("AssessTeam() members = %d, want 2", len(got.Members))
	}
	if got.Members[0].Result == nil || got.Members[0].Result.Scores.FitnessScore != 80 {
		t.Fatalf("member 0 = %+v", got.Members[0])
	}
	if got.Members[1].Skipped == "" || got.Members[1].Result != nil {
		t.Fatalf("member 1 = %+v, want skipped", got.Members[1])
	}
}

func TestAssessTeamUnknownTeam(t *testing.T) {
	svc, _ := newTestService(t, completionHandler(validScores))

	_, err := svc.AssessTeam(context.Background(), "missing")
	if err != store.ErrNotFound {
		t.Fatalf("AssessTeam() error = %v, want ErrNotFound", err)
	}
}
