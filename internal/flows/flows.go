// Package flows implements the AI flows of the Athlete Sentinel backend:
// readiness assessment, injury-risk prediction, chat, and performance
// reports. Each flow is a thin typed wrapper that fixes a prompt template
// and an output schema, hands the call to the generation gateway, and
// persists successful analysis outcomes.
package flows

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/athlete-sentinel/sentinel/internal/gateway"
	"github.com/athlete-sentinel/sentinel/internal/metrics"
	"github.com/athlete-sentinel/sentinel/internal/prompt"
	"github.com/athlete-sentinel/sentinel/internal/schema"
	"github.com/athlete-sentinel/sentinel/internal/store"
	"github.com/athlete-sentinel/sentinel/pkg/models"
)

// ErrNoSamples is returned when an assessment is requested for an athlete
// with no recorded sensor data.
var ErrNoSamples = errors.New("flows: no sensor data recorded for athlete")

// assessSampleWindow caps how many recent samples feed one assessment.
const assessSampleWindow = 20

// Output schemas. Scores ship as numbers in [0,100]; out-of-range or
// missing values are rejected, never clamped or defaulted.
var (
	readinessSchema = schema.Object("readiness",
		schema.Score("fitnessScore"),
		schema.Score("staminaScore"),
		schema.Score("strengthScore"),
		schema.Score("reflexScore"),
		schema.Score("neuralScore"),
		schema.Score("stressScore"),
	)

	injurySchema = schema.Object("injury-risk",
		schema.Score("fitnessScore"),
		schema.Score("staminaScore"),
		schema.Score("strengthScore"),
		schema.Score("reflexScore"),
		schema.Score("neuralScore"),
		schema.Score("stressScore"),
		schema.Ranged("injuryRiskPercent", 0, 100),
		schema.Str("predictedInjuryPart"),
	)

	injuryInputSchema = schema.Object("injury-input",
		numField("heartrate"),
		numField("o2"),
		numField("emg"),
		numField("balance"),
		numField("gait"),
		numField("energy"),
		numField("AccX"),
		numField("AccY"),
		numField("AccZ"),
		numField("GyroX"),
		numField("GyroY"),
		numField("GyroZ"),
	)

	chatSchema   = schema.PlainText("chat-reply")
	reportSchema = schema.PlainText("performance-report")
)

func numField(name string) schema.Field {
	return schema.Field{Name: name, Type: schema.Number, Required: true}
}

// Service runs the flows against a gateway and a store.
type Service struct {
	gw      *gateway.Gateway
	store   store.Store
	metrics *metrics.Metrics
}

// New creates a flow service. metrics may be nil in tests.
func New(gw *gateway.Gateway, st store.Store, m *metrics.Metrics) *Service {
	return &Service{gw: gw, store: st, metrics: m}
}

// observe records one gateway outcome when metrics are wired.
func (s *Service) observe(flow string, res *gateway.Result, started time.Time) {
	if s.metrics == nil {
		return
	}
	outcome, reason := "success", ""
	if !res.OK() {
		outcome, reason = "fallback", string(res.Fallback.Reason)
	}
	s.metrics.ObserveGeneration(flow, outcome, reason, time.Since(started))
}

// ── Readiness assessment ─────────────────────────────────────

// Assessment is the outcome of one readiness run. Exactly one of Scores
// or Fallback is set.
type Assessment struct {
	AthleteID string            `json:"athleteId"`
	Scores    *models.ScoreSet  `json:"scores,omitempty"`
	ResultID  string            `json:"resultId,omitempty"`
	Backend   string            `json:"backend,omitempty"`
	Fallback  *gateway.Fallback `json:"fallback,omitempty"`
}

// AssessReadiness scores an athlete's readiness over their most recent
// sensor samples. Successful runs are persisted as an AnalysisResult.
func (s *Service) AssessReadiness(ctx context.Context, athleteID string) (*Assessment, error) {
	samples, err := s.store.ListSamples(ctx, athleteID, assessSampleWindow)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	started := time.Now()
	res := s.gw.Generate(ctx, &gateway.Request{
		Flow:     prompt.Readiness.Name,
		Template: prompt.Readiness,
		Input: map[string]any{
			"athleteId":  athleteID,
			"sensorData": samples,
		},
		Output: readinessSchema,
	})
	s.observe(prompt.Readiness.Name, res, started)

	if !res.OK() {
		return &Assessment{AthleteID: athleteID, Fallback: res.Fallback}, nil
	}

	scores := scoreSetFrom(res.Fields)
	result := &models.AnalysisResult{
		ID:           uuid.NewString(),
		AthleteID:    athleteID,
		Timestamp:    time.Now().UTC(),
		SourceDataID: samples[0].ID,
		ScoreSet:     scores,
	}
	if err := s.store.AddResult(ctx, result); err != nil {
		// The scores are already valid; losing the record is worth a log
		// line but not a failed response.
		log.Error().Err(err).Str("athlete", athleteID).Msg("Failed to persist assessment result")
	}

	return &Assessment{
		AthleteID: athleteID,
		Scores:    &scores,
		ResultID:  result.ID,
		Backend:   res.Backend,
	}, nil
}

// ── Injury-risk prediction ───────────────────────────────────

// Prediction is the outcome of one injury-risk run.
type Prediction struct {
	AthleteID  string                   `json:"athleteId,omitempty"`
	Prediction *models.InjuryPrediction `json:"prediction,omitempty"`
	ResultID   string                   `json:"resultId,omitempty"`
	Backend    string                   `json:"backend,omitempty"`
	Fallback   *gateway.Fallback        `json:"fallback,omitempty"`
}

// PredictInjuryRisk analyzes a single sensor sample. When the sample names
// an athlete, successful runs are persisted.
func (s *Service) PredictInjuryRisk(ctx context.Context, sample models.SensorSample) (*Prediction, error) {
	input := map[string]any{
		"heartrate": sample.Heartrate,
		"o2":        sample.O2,
		"emg":       sample.EMG,
		"balance":   sample.Balance,
		"gait":      sample.Gait,
		"energy":    sample.Energy,
		"AccX":      sample.AccX,
		"AccY":      sample.AccY,
		"AccZ":      sample.AccZ,
		"GyroX":     sample.GyroX,
		"GyroY":     sample.GyroY,
		"GyroZ":     sample.GyroZ,
	}

	started := time.Now()
	res := s.gw.Generate(ctx, &gateway.Request{
		Flow:        prompt.InjuryRisk.Name,
		Template:    prompt.InjuryRisk,
		Input:       input,
		InputSchema: injuryInputSchema,
		Output:      injurySchema,
	})
	s.observe(prompt.InjuryRisk.Name, res, started)

	if !res.OK() {
		return &Prediction{AthleteID: sample.AthleteID, Fallback: res.Fallback}, nil
	}

	pred := &models.InjuryPrediction{
		ScoreSet:            scoreSetFrom(res.Fields),
		InjuryRiskPercent:   schema.NumberAt(res.Fields, "injuryRiskPercent"),
		PredictedInjuryPart: schema.StringAt(res.Fields, "predictedInjuryPart"),
	}

	out := &Prediction{
		AthleteID:  sample.AthleteID,
		Prediction: pred,
		Backend:    res.Backend,
	}

	if sample.AthleteID != "" {
		result := &models.AnalysisResult{
			ID:                  uuid.NewString(),
			AthleteID:           sample.AthleteID,
			Timestamp:           time.Now().UTC(),
			SourceDataID:        sample.ID,
			ScoreSet:            pred.ScoreSet,
			InjuryRiskPercent:   pred.InjuryRiskPercent,
			PredictedInjuryPart: pred.PredictedInjuryPart,
		}
		if err := s.store.AddResult(ctx, result); err != nil {
			log.Error().Err(err).Str("athlete", sample.AthleteID).Msg("Failed to persist prediction result")
		} else {
			out.ResultID = result.ID
		}
	}

	return out, nil
}

// scoreSetFrom reads the six score fields out of a validated payload.
func scoreSetFrom(fields map[string]any) models.ScoreSet {
	return models.ScoreSet{
		FitnessScore:  schema.NumberAt(fields, "fitnessScore"),
		StaminaScore:  schema.NumberAt(fields, "staminaScore"),
		StrengthScore: schema.NumberAt(fields, "strengthScore"),
		ReflexScore:   schema.NumberAt(fields, "reflexScore"),
		NeuralScore:   schema.NumberAt(fields, "neuralScore"),
		StressScore:   schema.NumberAt(fields, "stressScore"),
	}
}
