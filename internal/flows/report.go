package flows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/athlete-sentinel/sentinel/internal/gateway"
	"github.com/athlete-sentinel/sentinel/internal/prompt"
)

// reportResultWindow caps how many stored results feed one report.
const reportResultWindow = 10

// Report is the outcome of one performance-report run.
type Report struct {
	AthleteID string            `json:"athleteId"`
	TimeRange string            `json:"timeRange"`
	Report    string            `json:"report,omitempty"`
	Backend   string            `json:"backend,omitempty"`
	Fallback  *gateway.Fallback `json:"fallback,omitempty"`
}

// GeneratePerformanceReport writes a plain-language summary over the
// athlete's stored analysis results for the given time range.
func (s *Service) GeneratePerformanceReport(ctx context.Context, athleteID, timeRange string) (*Report, error) {
	results, err := s.store.ListResults(ctx, athleteID, reportResultWindow)
	if err != nil {
		return nil, err
	}

	input := map[string]any{
		"athleteId": athleteID,
		"timeRange": timeRange,
	}
	if len(results) > 0 {
		var lines []string
		for _, r := range results {
			line := fmt.Sprintf("%s: fitness %.0f, stamina %.0f, strength %.0f, reflex %.0f, neural %.0f, stress %.0f",
				r.Timestamp.UTC().Format("2006-01-02"),
				r.FitnessScore, r.StaminaScore, r.StrengthScore,
				r.ReflexScore, r.NeuralScore, r.StressScore)
			if r.PredictedInjuryPart != "" {
				line += fmt.Sprintf(", injury risk %.0f%% (%s)", r.InjuryRiskPercent, r.PredictedInjuryPart)
			}
			lines = append(lines, line)
		}
		input["resultSummary"] = strings.Join(lines, "; ")
	}

	started := time.Now()
	res := s.gw.Generate(ctx, &gateway.Request{
		Flow:      prompt.Report.Name,
		Template:  prompt.Report,
		Input:     input,
		Output:    reportSchema,
		MaxTokens: 1024,
	})
	s.observe(prompt.Report.Name, res, started)

	out := &Report{AthleteID: athleteID, TimeRange: timeRange}
	if !res.OK() {
		out.Fallback = res.Fallback
		return out, nil
	}
	out.Report = res.Text
	out.Backend = res.Backend
	return out, nil
}
