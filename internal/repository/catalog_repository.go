package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// CatalogRepository handles competency, indicator and question data access.
// It backs the batch-load interfaces consumed by scoring, assembly and
// simulation.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ─── Batch lookups ─────────────────────────────────────────────────

// QuestionsByIDs loads questions keyed by id.
func (r *CatalogRepository) QuestionsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.AssessmentQuestion, error) {
	out := make(map[uuid.UUID]model.AssessmentQuestion, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, indicator_id, question_text, question_type, options, difficulty,
		        rubric_max_score, time_limit_seconds, active
		 FROM assessment_questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = *q
	}
	return out, rows.Err()
}

// IndicatorsByIDs loads indicators keyed by id.
func (r *CatalogRepository) IndicatorsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.BehavioralIndicator, error) {
	out := make(map[uuid.UUID]model.BehavioralIndicator, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, competency_id, name, weight, measurement_type, context_scope,
		        role_code, observability, active
		 FROM behavioral_indicators WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ind model.BehavioralIndicator
		if err := rows.Scan(&ind.ID, &ind.CompetencyID, &ind.Name, &ind.Weight,
			&ind.Measurement, &ind.Scope, &ind.RoleCode, &ind.Observability, &ind.Active); err != nil {
			return nil, err
		}
		out[ind.ID] = ind
	}
	return out, rows.Err()
}

// CompetenciesByIDs loads competencies keyed by id.
func (r *CatalogRepository) CompetenciesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Competency, error) {
	out := make(map[uuid.UUID]model.Competency, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, trait_code, active, created_at, updated_at
		 FROM competencies WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Competency
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.TraitCode,
			&c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// CompetenciesForQuestions returns the distinct competencies the given
// questions evidence, via their indicators.
func (r *CatalogRepository) CompetenciesForQuestions(ctx context.Context, questionIDs []uuid.UUID) ([]model.Competency, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT c.id, c.name, c.description, c.trait_code, c.active, c.created_at, c.updated_at
		 FROM competencies c
		 JOIN behavioral_indicators i ON i.competency_id = c.id
		 JOIN assessment_questions q ON q.indicator_id = i.id
		 WHERE q.id = ANY($1)`, questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Competency
	for rows.Next() {
		var c model.Competency
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.TraitCode,
			&c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ─── Active listings (assembly) ────────────────────────────────────

// ListActiveCompetencies returns all active competencies ordered by name.
func (r *CatalogRepository) ListActiveCompetencies(ctx context.Context) ([]model.Competency, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, trait_code, active, created_at, updated_at
		 FROM competencies WHERE active = true ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Competency
	for rows.Next() {
		var c model.Competency
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.TraitCode,
			&c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListActiveIndicators returns a competency's active indicators.
func (r *CatalogRepository) ListActiveIndicators(ctx context.Context, competencyID uuid.UUID) ([]model.BehavioralIndicator, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, competency_id, name, weight, measurement_type, context_scope,
		        role_code, observability, active
		 FROM behavioral_indicators
		 WHERE competency_id = $1 AND active = true
		 ORDER BY weight DESC, name`, competencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BehavioralIndicator
	for rows.Next() {
		var ind model.BehavioralIndicator
		if err := rows.Scan(&ind.ID, &ind.CompetencyID, &ind.Name, &ind.Weight,
			&ind.Measurement, &ind.Scope, &ind.RoleCode, &ind.Observability, &ind.Active); err != nil {
			return nil, err
		}
		out = append(out, ind)
	}
	return out, rows.Err()
}

// ListActiveQuestions returns an indicator's active questions.
func (r *CatalogRepository) ListActiveQuestions(ctx context.Context, indicatorID uuid.UUID) ([]model.AssessmentQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, indicator_id, question_text, question_type, options, difficulty,
		        rubric_max_score, time_limit_seconds, active
		 FROM assessment_questions
		 WHERE indicator_id = $1 AND active = true
		 ORDER BY created_at`, indicatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AssessmentQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// EligibleQuestionCounts returns, per active competency, the number of active
// non-retired questions. Used for inventory health checks.
func (r *CatalogRepository) EligibleQuestionCounts(ctx context.Context) (map[uuid.UUID]int, map[uuid.UUID]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, COUNT(q.id)
		 FROM competencies c
		 LEFT JOIN behavioral_indicators i ON i.competency_id = c.id AND i.active = true
		 LEFT JOIN assessment_questions q ON q.indicator_id = i.id AND q.active = true
		 LEFT JOIN item_statistics s ON s.question_id = q.id
		 WHERE c.active = true AND (s.validity_status IS NULL OR s.validity_status <> 'RETIRED')
		 GROUP BY c.id, c.name`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	names := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var name string
		var n int
		if err := rows.Scan(&id, &name, &n); err != nil {
			return nil, nil, err
		}
		counts[id] = n
		names[id] = name
	}
	return counts, names, rows.Err()
}

// ─── Authoring ─────────────────────────────────────────────────────

// CreateCompetency inserts a new competency.
func (r *CatalogRepository) CreateCompetency(ctx context.Context, c *model.Competency) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO competencies (name, description, trait_code, active)
		 VALUES ($1, $2, $3, true)
		 RETURNING id, active, created_at, updated_at`,
		c.Name, c.Description, c.TraitCode,
	).Scan(&c.ID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
}

// CreateIndicator inserts a new behavioral indicator.
func (r *CatalogRepository) CreateIndicator(ctx context.Context, ind *model.BehavioralIndicator) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO behavioral_indicators
		   (competency_id, name, weight, measurement_type, context_scope, role_code, observability, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		 RETURNING id, active`,
		ind.CompetencyID, ind.Name, ind.Weight, ind.Measurement, ind.Scope, ind.RoleCode, ind.Observability,
	).Scan(&ind.ID, &ind.Active)
}

// CreateQuestion inserts a new assessment question.
func (r *CatalogRepository) CreateQuestion(ctx context.Context, q *model.AssessmentQuestion) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_questions
		   (indicator_id, question_text, question_type, options, difficulty,
		    rubric_max_score, time_limit_seconds, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		 RETURNING id, active`,
		q.IndicatorID, q.QuestionText, q.QuestionType, opts, q.Difficulty,
		q.RubricMaxScore, q.TimeLimitSeconds,
	).Scan(&q.ID, &q.Active)
}

func scanQuestion(row pgx.Row) (*model.AssessmentQuestion, error) {
	var q model.AssessmentQuestion
	var opts []byte
	if err := row.Scan(&q.ID, &q.IndicatorID, &q.QuestionText, &q.QuestionType, &opts,
		&q.Difficulty, &q.RubricMaxScore, &q.TimeLimitSeconds, &q.Active); err != nil {
		return nil, err
	}
	if len(opts) > 0 {
		if err := json.Unmarshal(opts, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options for question %s: %w", q.ID, err)
		}
	}
	return &q, nil
}
