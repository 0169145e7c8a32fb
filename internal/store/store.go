// Package store provides the storage interface and implementations for the
// Athlete Sentinel backend. The in-memory store covers local development and
// tests; the PostgreSQL store is selected when DATABASE_URL is configured.
package store

import (
	"context"
	"errors"

	"github.com/athlete-sentinel/sentinel/pkg/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the storage interface all handler and flow code depends on,
// making it easy to swap between in-memory (tests) and PostgreSQL
// (production) implementations.
type Store interface {
	UserStore
	TeamStore
	SampleStore
	ResultStore

	// Ping checks if the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error

	// Migrate prepares the backing schema. No-op for the memory store.
	Migrate(ctx context.Context) error
}

// ── Users ────────────────────────────────────────────────────

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
}

// ── Teams ────────────────────────────────────────────────────

type TeamStore interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	UpsertTeam(ctx context.Context, team *models.Team) error
}

// ── Sensor samples ───────────────────────────────────────────

type SampleStore interface {
	// AddSample stores one device reading.
	AddSample(ctx context.Context, sample *models.SensorSample) error

	// ListSamples returns an athlete's readings, newest first, up to limit
	// (0 means no limit).
	ListSamples(ctx context.Context, athleteID string, limit int) ([]models.SensorSample, error)
}

// ── Analysis results ─────────────────────────────────────────

type ResultStore interface {
	// AddResult records the outcome of a readiness or injury flow run.
	AddResult(ctx context.Context, result *models.AnalysisResult) error

	// ListResults returns an athlete's stored results, newest first, up to
	// limit (0 means no limit).
	ListResults(ctx context.Context, athleteID string, limit int) ([]models.AnalysisResult, error)
}
