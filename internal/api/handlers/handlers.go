// Package handlers implements the HTTP handlers for the Athlete Sentinel
// API. All handlers go through the Store interface and the flow service;
// generation fallbacks surface as HTTP 200 payloads carrying the fallback
// message and reason, never as raw error blobs.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/athlete-sentinel/sentinel/internal/devicestatus"
	"github.com/athlete-sentinel/sentinel/internal/flows"
	"github.com/athlete-sentinel/sentinel/internal/metrics"
	"github.com/athlete-sentinel/sentinel/internal/store"
	"github.com/athlete-sentinel/sentinel/pkg/models"
)

// defaultListLimit bounds sample and result listings unless the caller
// asks for more.
const defaultListLimit = 50

// Handlers holds all handler dependencies.
type Handlers struct {
	Store   store.Store
	Flows   *flows.Service
	Device  *devicestatus.Channel
	Metrics *metrics.Metrics
}

// New creates a Handlers instance.
func New(st store.Store, fl *flows.Service, dev *devicestatus.Channel, m *metrics.Metrics) *Handlers {
	return &Handlers{Store: st, Flows: fl, Device: dev, Metrics: m}
}

// ── Athletes ─────────────────────────────────────────────────

// ListAthletes returns the users with the athlete role.
func (h *Handlers) ListAthletes(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	athletes := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleAthlete {
			athletes = append(athletes, u)
		}
	}
	respondJSON(w, http.StatusOK, athletes)
}

func (h *Handlers) GetAthlete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "athleteID")
	user, err := h.Store.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "athlete not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ── Sensor samples ───────────────────────────────────────────

func (h *Handlers) ListSamples(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "athleteID")
	samples, err := h.Store.ListSamples(r.Context(), id, queryLimit(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, samples)
}

// AddSample ingests one device reading for the athlete in the path.
func (h *Handlers) AddSample(w http.ResponseWriter, r *http.Request) {
	var sample models.SensorSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sample.AthleteID = chi.URLParam(r, "athleteID")
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	if err := h.Store.AddSample(r.Context(), &sample); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, sample)
}

func (h *Handlers) ListResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "athleteID")
	results, err := h.Store.ListResults(r.Context(), id, queryLimit(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// ── AI flows ─────────────────────────────────────────────────

// AssessAthlete runs the readiness flow over the athlete's latest samples.
func (h *Handlers) AssessAthlete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "athleteID")
	res, err := h.Flows.AssessReadiness(r.Context(), id)
	if errors.Is(err, flows.ErrNoSamples) {
		respondError(w, http.StatusUnprocessableEntity, "no sensor data recorded for athlete")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Predict runs the injury-risk flow over a posted sensor sample.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	var sample models.SensorSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.Flows.PredictInjuryRisk(r.Context(), sample)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type chatRequest struct {
	History []models.ChatTurn `json:"history"`
}

// Chat produces the assistant's next turn.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.Flows.Chat(r.Context(), req.History)
	if errors.Is(err, flows.ErrEmptyHistory) || errors.Is(err, flows.ErrHistoryNotUser) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type reportRequest struct {
	AthleteID string `json:"athleteId"`
	TimeRange string `json:"timeRange"`
}

// Report generates a performance report over stored analysis results.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AthleteID == "" {
		respondError(w, http.StatusBadRequest, "athleteId is required")
		return
	}
	if req.TimeRange == "" {
		req.TimeRange = "last 7 days"
	}
	res, err := h.Flows.GeneratePerformanceReport(r.Context(), req.AthleteID, req.TimeRange)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// ── Teams ────────────────────────────────────────────────────

func (h *Handlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Store.ListTeams(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

func (h *Handlers) GetTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "teamID")
	team, err := h.Store.GetTeam(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "team not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, team)
}

// AssessTeam runs the readiness flow across the whole roster.
func (h *Handlers) AssessTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "teamID")
	res, err := h.Flows.AssessTeam(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "team not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// ── Device status ────────────────────────────────────────────

func (h *Handlers) GetDevice(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.DeviceState{Connected: h.Device.Connected()})
}

// SetDevice publishes a new connection state to all subscribers.
func (h *Handlers) SetDevice(w http.ResponseWriter, r *http.Request) {
	var state models.DeviceState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.Device.Publish(state.Connected)
	respondJSON(w, http.StatusOK, state)
}

// ── Helpers ──────────────────────────────────────────────────

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultListLimit
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
