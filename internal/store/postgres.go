// Package store — PostgreSQL Store implementation backed by pgx.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/athlete-sentinel/sentinel/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies reachability.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	log.Info().Msg("PostgreSQL store connected")
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the schema if it does not exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			display_name TEXT NOT NULL,
			role TEXT NOT NULL,
			photo_url TEXT NOT NULL DEFAULT '',
			team_ids TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			team_name TEXT NOT NULL,
			coach_id TEXT NOT NULL,
			athlete_ids TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS sensor_samples (
			id TEXT PRIMARY KEY,
			athlete_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			heartrate DOUBLE PRECISION NOT NULL DEFAULT 0,
			o2 DOUBLE PRECISION NOT NULL DEFAULT 0,
			emg DOUBLE PRECISION NOT NULL DEFAULT 0,
			balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			gait DOUBLE PRECISION NOT NULL DEFAULT 0,
			energy DOUBLE PRECISION NOT NULL DEFAULT 0,
			acc_x DOUBLE PRECISION NOT NULL DEFAULT 0,
			acc_y DOUBLE PRECISION NOT NULL DEFAULT 0,
			acc_z DOUBLE PRECISION NOT NULL DEFAULT 0,
			gyro_x DOUBLE PRECISION NOT NULL DEFAULT 0,
			gyro_y DOUBLE PRECISION NOT NULL DEFAULT 0,
			gyro_z DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_athlete_ts
			ON sensor_samples (athlete_id, ts DESC)`,
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id TEXT PRIMARY KEY,
			athlete_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			source_data_id TEXT NOT NULL DEFAULT '',
			fitness_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			stamina_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			strength_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			reflex_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			neural_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			stress_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			injury_risk_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
			predicted_injury_part TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_athlete_ts
			ON analysis_results (athlete_id, ts DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}

// ── Users ────────────────────────────────────────────────────

func (p *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, email, display_name, role, photo_url, team_ids FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.PhotoURL, &u.TeamIDs); err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (p *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := p.pool.QueryRow(ctx,
		`SELECT id, email, display_name, role, photo_url, team_ids FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.PhotoURL, &u.TeamIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return &u, nil
}

func (p *PostgresStore) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, role, photo_url, team_ids)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			role = EXCLUDED.role,
			photo_url = EXCLUDED.photo_url,
			team_ids = EXCLUDED.team_ids`,
		user.ID, user.Email, user.DisplayName, user.Role, user.PhotoURL, user.TeamIDs)
	if err != nil {
		return fmt.Errorf("postgres: upsert user: %w", err)
	}
	return nil
}

// ── Teams ────────────────────────────────────────────────────

func (p *PostgresStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, team_name, coach_id, athlete_ids FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.TeamName, &t.CoachID, &t.AthleteIDs); err != nil {
			return nil, fmt.Errorf("postgres: scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (p *PostgresStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var t models.Team
	err := p.pool.QueryRow(ctx,
		`SELECT id, team_name, coach_id, athlete_ids FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.TeamName, &t.CoachID, &t.AthleteIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get team: %w", err)
	}
	return &t, nil
}

func (p *PostgresStore) UpsertTeam(ctx context.Context, team *models.Team) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO teams (id, team_name, coach_id, athlete_ids)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			team_name = EXCLUDED.team_name,
			coach_id = EXCLUDED.coach_id,
			athlete_ids = EXCLUDED.athlete_ids`,
		team.ID, team.TeamName, team.CoachID, team.AthleteIDs)
	if err != nil {
		return fmt.Errorf("postgres: upsert team: %w", err)
	}
	return nil
}

// ── Sensor samples ───────────────────────────────────────────

func (p *PostgresStore) AddSample(ctx context.Context, s *models.SensorSample) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sensor_samples
			(id, athlete_id, ts, heartrate, o2, emg, balance, gait, energy,
			 acc_x, acc_y, acc_z, gyro_x, gyro_y, gyro_z)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		s.ID, s.AthleteID, s.Timestamp, s.Heartrate, s.O2, s.EMG, s.Balance,
		s.Gait, s.Energy, s.AccX, s.AccY, s.AccZ, s.GyroX, s.GyroY, s.GyroZ)
	if err != nil {
		return fmt.Errorf("postgres: add sample: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListSamples(ctx context.Context, athleteID string, limit int) ([]models.SensorSample, error) {
	q := `SELECT id, athlete_id, ts, heartrate, o2, emg, balance, gait, energy,
			acc_x, acc_y, acc_z, gyro_x, gyro_y, gyro_z
		  FROM sensor_samples WHERE athlete_id = $1 ORDER BY ts DESC`
	args := []any{athleteID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list samples: %w", err)
	}
	defer rows.Close()

	var samples []models.SensorSample
	for rows.Next() {
		var s models.SensorSample
		if err := rows.Scan(&s.ID, &s.AthleteID, &s.Timestamp, &s.Heartrate, &s.O2,
			&s.EMG, &s.Balance, &s.Gait, &s.Energy,
			&s.AccX, &s.AccY, &s.AccZ, &s.GyroX, &s.GyroY, &s.GyroZ); err != nil {
			return nil, fmt.Errorf("postgres: scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// ── Analysis results ─────────────────────────────────────────

func (p *PostgresStore) AddResult(ctx context.Context, r *models.AnalysisResult) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO analysis_results
			(id, athlete_id, ts, source_data_id, fitness_score, stamina_score,
			 strength_score, reflex_score, neural_score, stress_score,
			 injury_risk_percent, predicted_injury_part)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.AthleteID, r.Timestamp, r.SourceDataID,
		r.FitnessScore, r.StaminaScore, r.StrengthScore,
		r.ReflexScore, r.NeuralScore, r.StressScore,
		r.InjuryRiskPercent, r.PredictedInjuryPart)
	if err != nil {
		return fmt.Errorf("postgres: add result: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListResults(ctx context.Context, athleteID string, limit int) ([]models.AnalysisResult, error) {
	q := `SELECT id, athlete_id, ts, source_data_id, fitness_score, stamina_score,
			strength_score, reflex_score, neural_score, stress_score,
			injury_risk_percent, predicted_injury_part
		  FROM analysis_results WHERE athlete_id = $1 ORDER BY ts DESC`
	args := []any{athleteID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list results: %w", err)
	}
	defer rows.Close()

	var results []models.AnalysisResult
	for rows.Next() {
		var r models.AnalysisResult
		if err := rows.Scan(&r.ID, &r.AthleteID, &r.Timestamp, &r.SourceDataID,
			&r.FitnessScore, &r.StaminaScore, &r.StrengthScore,
			&r.ReflexScore, &r.NeuralScore, &r.StressScore,
			&r.InjuryRiskPercent, &r.PredictedInjuryPart); err != nil {
			return nil, fmt.Errorf("postgres: scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ── Lifecycle ────────────────────────────────────────────────

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
