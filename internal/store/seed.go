package store

import (
	"context"
	"fmt"

	"github.com/athlete-sentinel/sentinel/pkg/models"
	"github.com/rs/zerolog/log"
)

// Seed populates an empty store with the demo roster so the dashboard has
// data on first boot. A store that already holds users is left untouched.
func Seed(ctx context.Context, s Store) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("seed: list users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	roster := []models.User{
		{ID: "athlete-1", Email: "alex.doe@example.com", DisplayName: "Alex Doe", Role: models.RoleAthlete, TeamIDs: []string{"team-1"}},
		{ID: "athlete-2", Email: "maria.garcia@example.com", DisplayName: "Maria Garcia", Role: models.RoleAthlete, TeamIDs: []string{"team-1"}},
		{ID: "athlete-3", Email: "sam.wilson@example.com", DisplayName: "Sam Wilson", Role: models.RoleAthlete, TeamIDs: []string{"team-1"}},
		{ID: "athlete-4", Email: "jessica.chen@example.com", DisplayName: "Jessica Chen", Role: models.RoleAthlete, TeamIDs: []string{"team-1"}},
		{ID: "coach-1", Email: "brian.smith@example.com", DisplayName: "Brian Smith", Role: models.RoleCoach, TeamIDs: []string{"team-1"}},
		{ID: "physio-1", Email: "carla.jones@example.com", DisplayName: "Carla Jones", Role: models.RolePhysiotherapist, TeamIDs: []string{"team-1"}},
	}
	for i := range roster {
		if err := s.UpsertUser(ctx, &roster[i]); err != nil {
			return fmt.Errorf("seed: upsert user %s: %w", roster[i].ID, err)
		}
	}

	team := models.Team{
		ID:         "team-1",
		TeamName:   "Varsity Football",
		CoachID:    "coach-1",
		AthleteIDs: []string{"athlete-1", "athlete-2", "athlete-3", "athlete-4"},
	}
	if err := s.UpsertTeam(ctx, &team); err != nil {
		return fmt.Errorf("seed: upsert team: %w", err)
	}

	log.Info().Int("users", len(roster)).Msg("Seeded demo roster")
	return nil
}
