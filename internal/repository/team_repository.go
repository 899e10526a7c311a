package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// TeamRepository handles team profile data access. The saturation map is
// stored as jsonb keyed by competency id.
type TeamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository creates a new TeamRepository.
func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

// GetTeamProfile fetches a team's saturation profile, or (nil, nil) if the
// team does not exist.
func (r *TeamRepository) GetTeamProfile(ctx context.Context, teamID uuid.UUID) (*model.TeamProfile, error) {
	var (
		p   model.TeamProfile
		raw []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, competency_saturation, updated_at FROM teams WHERE id = $1`,
		teamID,
	).Scan(&p.TeamID, &p.Name, &raw, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Saturation); err != nil {
			return nil, fmt.Errorf("decode saturation for team %s: %w", teamID, err)
		}
	}
	return &p, nil
}

// UndersaturatedCompetencies returns the team's competencies below the
// saturation threshold, weakest coverage first.
func (r *TeamRepository) UndersaturatedCompetencies(ctx context.Context, teamID uuid.UUID, threshold float64) ([]model.CompetencySaturation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT kv.key::uuid, kv.value::float8
		 FROM teams t, jsonb_each_text(t.competency_saturation) kv
		 WHERE t.id = $1 AND kv.value::float8 < $2
		 ORDER BY kv.value::float8`, teamID, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CompetencySaturation
	for rows.Next() {
		var cs model.CompetencySaturation
		if err := rows.Scan(&cs.CompetencyID, &cs.Saturation); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// UpsertTeamProfile writes a team's saturation map.
func (r *TeamRepository) UpsertTeamProfile(ctx context.Context, p *model.TeamProfile) error {
	raw, err := json.Marshal(p.Saturation)
	if err != nil {
		return fmt.Errorf("marshal saturation: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO teams (id, name, competency_saturation)
		 VALUES (COALESCE(NULLIF($1, '00000000-0000-0000-0000-000000000000'::uuid), gen_random_uuid()), $2, $3)
		 ON CONFLICT (id) DO UPDATE SET
		   name                  = EXCLUDED.name,
		   competency_saturation = EXCLUDED.competency_saturation,
		   updated_at            = now()
		 RETURNING id, updated_at`,
		p.TeamID, p.Name, raw,
	).Scan(&p.TeamID, &p.UpdatedAt)
}
