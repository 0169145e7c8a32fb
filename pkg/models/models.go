// Package models defines the shared domain types for the Athlete Sentinel
// backend: users and teams, raw sensor samples, AI analysis results, and the
// conversation types exchanged with the generation gateway.
package models

import (
	"time"
)

// ── Users & Teams ────────────────────────────────────────────

// UserRole identifies what a user is allowed to see in the dashboard.
// Roles are carried as data only; the backend does not enforce them.
type UserRole string

const (
	RoleAthlete         UserRole = "athlete"
	RoleCoach           UserRole = "coach"
	RolePhysiotherapist UserRole = "physiotherapist"
)

// User is a dashboard user (athlete, coach, or physiotherapist).
type User struct {
	ID          string   `json:"uid"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Role        UserRole `json:"role"`
	PhotoURL    string   `json:"photoURL,omitempty"`
	TeamIDs     []string `json:"teamIds,omitempty"`
}

// Team groups athletes under a coach.
type Team struct {
	ID         string   `json:"id"`
	TeamName   string   `json:"teamName"`
	CoachID    string   `json:"coachId"`
	AthleteIDs []string `json:"athleteIds"`
}

// ── Sensor data ──────────────────────────────────────────────

// SensorSample is one reading from the monitoring device.
// Field names match the device firmware's JSON output, including the
// capitalized accelerometer/gyroscope axes.
type SensorSample struct {
	ID        string    `json:"id"`
	AthleteID string    `json:"athleteId"`
	Timestamp time.Time `json:"timestamp"`
	Heartrate float64   `json:"heartrate"`
	O2        float64   `json:"o2"`
	EMG       float64   `json:"emg"`
	Balance   float64   `json:"balance"`
	Gait      float64   `json:"gait"`
	Energy    float64   `json:"energy"`
	AccX      float64   `json:"AccX"`
	AccY      float64   `json:"AccY"`
	AccZ      float64   `json:"AccZ"`
	GyroX     float64   `json:"GyroX"`
	GyroY     float64   `json:"GyroY"`
	GyroZ     float64   `json:"GyroZ"`
}

// ── Analysis results ─────────────────────────────────────────

// ScoreSet holds the six readiness scores, each in [0,100].
type ScoreSet struct {
	FitnessScore  float64 `json:"fitnessScore"`
	StaminaScore  float64 `json:"staminaScore"`
	StrengthScore float64 `json:"strengthScore"`
	ReflexScore   float64 `json:"reflexScore"`
	NeuralScore   float64 `json:"neuralScore"`
	StressScore   float64 `json:"stressScore"`
}

// InjuryPrediction extends the score set with the injury assessment.
type InjuryPrediction struct {
	ScoreSet
	InjuryRiskPercent   float64 `json:"injuryRiskPercent"`
	PredictedInjuryPart string  `json:"predictedInjuryPart"`
}

// AnalysisResult is a stored outcome of a readiness or injury flow run.
type AnalysisResult struct {
	ID           string    `json:"id"`
	AthleteID    string    `json:"athleteId"`
	Timestamp    time.Time `json:"timestamp"`
	SourceDataID string    `json:"sourceDataId,omitempty"`
	ScoreSet
	InjuryRiskPercent   float64 `json:"injuryRiskPercent,omitempty"`
	PredictedInjuryPart string  `json:"predictedInjuryPart,omitempty"`
}

// ── Conversation ─────────────────────────────────────────────

// ChatRole is the author of a conversation turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// ChatTurn is a single message in a conversation history.
// Insertion order is chronological; a history submitted for a new reply
// must end with a user turn.
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// ChatMessage is the wire shape sent to OpenAI-compatible endpoints.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ── Device status ────────────────────────────────────────────

// DeviceState is the broadcast payload for the device-connection signal.
type DeviceState struct {
	Connected bool `json:"connected"`
}
