package flows

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// teamAssessConcurrency bounds how many athletes are assessed at once so a
// large roster cannot stampede the model backends.
const teamAssessConcurrency = 4

// MemberAssessment is one roster entry of a team assessment. Skipped is set
// (with no Assessment) for athletes that have no sensor data yet.
type MemberAssessment struct {
	AthleteID string      `json:"athleteId"`
	Skipped   string      `json:"skipped,omitempty"`
	Result    *Assessment `json:"result,omitempty"`
}

// TeamAssessment is the roster-wide readiness outcome.
type TeamAssessment struct {
	TeamID   string             `json:"teamId"`
	TeamName string             `json:"teamName"`
	Members  []MemberAssessment `json:"members"`
}

// AssessTeam runs the readiness flow for every athlete on the roster,
// concurrently. Athletes without sensor data are reported as skipped;
// per-athlete fallbacks land in their member entry. A store failure aborts
// the whole run.
func (s *Service) AssessTeam(ctx context.Context, teamID string) (*TeamAssessment, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	members := make([]MemberAssessment, len(team.AthleteIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(teamAssessConcurrency)
	for i, athleteID := range team.AthleteIDs {
		g.Go(func() error {
			entry := MemberAssessment{AthleteID: athleteID}
			res, err := s.AssessReadiness(gctx, athleteID)
			switch {
			case errors.Is(err, ErrNoSamples):
				entry.Skipped = "no sensor data recorded"
			case err != nil:
				return err
			default:
				entry.Result = res
			}
			members[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &TeamAssessment{
		TeamID:   team.ID,
		TeamName: team.TeamName,
		Members:  members,
	}, nil
}
