// Package store — in-memory Store implementation.
// Used when PostgreSQL is not configured (local dev, tests). Supports
// file-based snapshot persistence so data survives restarts.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/athlete-sentinel/sentinel/pkg/models"
	"github.com/rs/zerolog/log"
)

// snapshot is the JSON-serializable shape written to disk.
type snapshot struct {
	Users   map[string]*models.User           `json:"users"`
	Teams   map[string]*models.Team           `json:"teams"`
	Samples map[string][]models.SensorSample  `json:"samples"` // key: athlete_id
	Results map[string][]models.AnalysisResult `json:"results"` // key: athlete_id
}

// MemoryStore implements Store with mutex-guarded maps.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	teams   map[string]*models.Team
	samples map[string][]models.SensorSample  // key: athlete_id, append order
	results map[string][]models.AnalysisResult // key: athlete_id, append order

	// Persistence
	snapshotPath string        // empty = no persistence
	saveMu       sync.Mutex    // guards file writes
	saveCh       chan struct{} // debounce channel
	doneCh       chan struct{} // stops the background save loop
}

// NewMemoryStore creates a new in-memory store. If SENTINEL_DATA_DIR is set,
// data is persisted to a JSON file in that directory; set it to "off" (or
// leave the home dir unresolvable) to disable persistence entirely.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		users:   make(map[string]*models.User),
		teams:   make(map[string]*models.Team),
		samples: make(map[string][]models.SensorSample),
		results: make(map[string][]models.AnalysisResult),
		saveCh:  make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
	}

	dataDir := os.Getenv("SENTINEL_DATA_DIR")
	if dataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(home, ".sentinel")
		}
	}
	if dataDir != "" && dataDir != "off" {
		m.snapshotPath = filepath.Join(dataDir, "data.json")
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dataDir).Msg("Cannot create data dir, persistence disabled")
			m.snapshotPath = ""
		}
	}

	if m.snapshotPath != "" {
		m.loadSnapshot()
		go m.saveLoop()
	}

	return m
}

// ── Users ────────────────────────────────────────────────────

func (m *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) UpsertUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	cp := *user
	m.users[user.ID] = &cp
	m.mu.Unlock()
	m.requestSave()
	return nil
}

// ── Teams ────────────────────────────────────────────────────

func (m *MemoryStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) UpsertTeam(ctx context.Context, team *models.Team) error {
	m.mu.Lock()
	cp := *team
	m.teams[team.ID] = &cp
	m.mu.Unlock()
	m.requestSave()
	return nil
}

// ── Sensor samples ───────────────────────────────────────────

func (m *MemoryStore) AddSample(ctx context.Context, sample *models.SensorSample) error {
	m.mu.Lock()
	m.samples[sample.AthleteID] = append(m.samples[sample.AthleteID], *sample)
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) ListSamples(ctx context.Context, athleteID string, limit int) ([]models.SensorSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.samples[athleteID], limit, func(s models.SensorSample) time.Time { return s.Timestamp }), nil
}

// ── Analysis results ─────────────────────────────────────────

func (m *MemoryStore) AddResult(ctx context.Context, result *models.AnalysisResult) error {
	m.mu.Lock()
	m.results[result.AthleteID] = append(m.results[result.AthleteID], *result)
	m.mu.Unlock()
	m.requestSave()
	return nil
}

func (m *MemoryStore) ListResults(ctx context.Context, athleteID string, limit int) ([]models.AnalysisResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.results[athleteID], limit, func(r models.AnalysisResult) time.Time { return r.Timestamp }), nil
}

// newestFirst copies, sorts newest-first, and truncates to limit.
func newestFirst[T any](in []T, limit int, at func(T) time.Time) []T {
	out := make([]T, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return at(out[i]).After(at(out[j])) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ── Lifecycle ────────────────────────────────────────────────

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	close(m.doneCh)
	if m.snapshotPath != "" {
		m.saveSnapshot()
	}
	return nil
}

// ── Snapshot persistence ─────────────────────────────────────

// requestSave schedules a debounced snapshot write.
func (m *MemoryStore) requestSave() {
	if m.snapshotPath == "" {
		return
	}
	select {
	case m.saveCh <- struct{}{}:
	default:
	}
}

// saveLoop coalesces save requests so bursts of writes produce one file write.
func (m *MemoryStore) saveLoop() {
	for {
		select {
		case <-m.doneCh:
			return
		case <-m.saveCh:
			time.Sleep(250 * time.Millisecond)
			// Drain any request that arrived during the debounce window.
			select {
			case <-m.saveCh:
			default:
			}
			m.saveSnapshot()
		}
	}
}

func (m *MemoryStore) saveSnapshot() {
	m.mu.RLock()
	snap := snapshot{
		Users:   m.users,
		Teams:   m.teams,
		Samples: m.samples,
		Results: m.results,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		log.Warn().Err(err).Msg("Snapshot marshal failed")
		return
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	tmp := m.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", tmp).Msg("Snapshot write failed")
		return
	}
	if err := os.Rename(tmp, m.snapshotPath); err != nil {
		log.Warn().Err(err).Str("path", m.snapshotPath).Msg("Snapshot rename failed")
	}
}

func (m *MemoryStore) loadSnapshot() {
	data, err := os.ReadFile(m.snapshotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", m.snapshotPath).Msg("Snapshot read failed")
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn().Err(err).Str("path", m.snapshotPath).Msg("Snapshot corrupt, starting empty")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.Users != nil {
		m.users = snap.Users
	}
	if snap.Teams != nil {
		m.teams = snap.Teams
	}
	if snap.Samples != nil {
		m.samples = snap.Samples
	}
	if snap.Results != nil {
		m.results = snap.Results
	}

	log.Info().
		Int("users", len(m.users)).
		Int("teams", len(m.teams)).
		Str("path", m.snapshotPath).
		Msg("Loaded store snapshot")
}
