package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/athlete-sentinel/sentinel/pkg/models"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	t.Setenv("SENTINEL_DATA_DIR", "off")
	m := NewMemoryStore()
	t.Cleanup(func() { m.Close() })
	return m
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := models.User{ID: "u1", Email: "a@b.c", DisplayName: "Ada", Role: models.RoleAthlete}
	if err := s.UpsertUser(ctx, &u); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	got, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.DisplayName != "Ada" || got.Role != models.RoleAthlete {
		t.Fatalf("GetUser() = %+v", got)
	}

	// Mutating the returned copy must not affect the stored value.
	got.DisplayName = "changed"
	again, _ := s.GetUser(ctx, "u1")
	if again.DisplayName != "Ada" {
		t.Fatalf("stored user mutated through returned copy")
	}
}

func TestListSamplesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of order.
	for _, offset := range []time.Duration{time.Minute, 3 * time.Minute, 2 * time.Minute} {
		sample := models.SensorSample{
			ID:        offset.String(),
			AthleteID: "athlete-1",
			Timestamp: base.Add(offset),
			Heartrate: 70,
		}
		if err := s.AddSample(ctx, &sample); err != nil {
			t.Fatalf("AddSample() error = %v", err)
		}
	}

	got, err := s.ListSamples(ctx, "athlete-1", 0)
	if err != nil {
		t.Fatalf("ListSamples() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListSamples() returned %d samples, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("samples not newest-first: %v before %v", got[i-1].Timestamp, got[i].Timestamp)
		}
	}

	limited, err := s.ListSamples(ctx, "athlete-1", 2)
	if err != nil {
		t.Fatalf("ListSamples() error = %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("ListSamples(limit=2) returned %d samples", len(limited))
	}
	if limited[0].Timestamp != base.Add(3*time.Minute) {
		t.Fatalf("ListSamples(limit=2)[0].Timestamp = %v", limited[0].Timestamp)
	}
}

func TestListSamplesUnknownAthlete(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ListSamples(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatalf("ListSamples() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ListSamples() = %d samples, want 0", len(got))
	}
}

func TestResultsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := models.AnalysisResult{
		ID:        "r1",
		AthleteID: "athlete-1",
		Timestamp: time.Now().UTC(),
		ScoreSet:  models.ScoreSet{FitnessScore: 80, StaminaScore: 75},
	}
	if err := s.AddResult(ctx, &r); err != nil {
		t.Fatalf("AddResult() error = %v", err)
	}

	got, err := s.ListResults(ctx, "athlete-1", 0)
	if err != nil {
		t.Fatalf("ListResults() error = %v", err)
	}
	if len(got) != 1 || got[0].FitnessScore != 80 {
		t.Fatalf("ListResults() = %+v", got)
	}
}

func TestSnapshotPersistence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SENTINEL_DATA_DIR", dir)

	s := NewMemoryStore()
	ctx := context.Background()
	u := models.User{ID: "u1", Email: "a@b.c", DisplayName: "Ada", Role: models.RoleCoach}
	if err := s.UpsertUser(ctx, &u); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A fresh store pointed at the same directory sees the saved data.
	reopened := NewMemoryStore()
	defer reopened.Close()
	got, err := reopened.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser() after reopen error = %v", err)
	}
	if got.DisplayName != "Ada" {
		t.Fatalf("GetUser() after reopen = %+v", got)
	}
}

func TestSeedIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := Seed(ctx, s); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 6 {
		t.Fatalf("Seed() produced %d users, want 6", len(users))
	}
	team, err := s.GetTeam(ctx, "team-1")
	if err != nil {
		t.Fatalf("GetTeam() error = %v", err)
	}
	if team.TeamName != "Varsity Football" || len(team.AthleteIDs) != 4 {
		t.Fatalf("GetTeam() = %+v", team)
	}

	// Seeding again must not duplicate the roster.
	if err := Seed(ctx, s); err != nil {
		t.Fatalf("Seed() second run error = %v", err)
	}
	users, _ = s.ListUsers(ctx)
	if len(users) != 6 {
		t.Fatalf("second Seed() produced %d users, want 6", len(users))
	}
}
