package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// ErrTemplateNotFound is returned when a template does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateRepository handles test template data access.
type TemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

const templateColumns = `id, title, goal, blueprint, duration_minutes, passing_score,
	allow_back, shuffle_options, status, version, parent_id, created_at, updated_at`

// GetByID fetches a template by id.
func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestTemplate, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM test_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	return t, err
}

// List returns templates ordered newest first, optionally filtered by status.
func (r *TemplateRepository) List(ctx context.Context, status *model.TemplateStatus) ([]model.TestTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM test_templates`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TestTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Create inserts a new draft template.
func (r *TemplateRepository) Create(ctx context.Context, t *model.TestTemplate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO test_templates
		   (title, goal, blueprint, duration_minutes, passing_score,
		    allow_back, shuffle_options, status, version, parent_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		t.Title, t.Goal, t.Blueprint, t.DurationMinutes, t.PassingScore,
		t.AllowBack, t.ShuffleOptions, t.Status, t.Version, t.ParentID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update rewrites an editable template's mutable fields.
func (r *TemplateRepository) Update(ctx context.Context, t *model.TestTemplate) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_templates
		 SET title = $2, blueprint = $3, duration_minutes = $4, passing_score = $5,
		     allow_back = $6, shuffle_options = $7, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Title, t.Blueprint, t.DurationMinutes, t.PassingScore,
		t.AllowBack, t.ShuffleOptions)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// UpdateStatus moves a template through its lifecycle.
func (r *TemplateRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TemplateStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_templates SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row) (*model.TestTemplate, error) {
	var t model.TestTemplate
	if err := row.Scan(&t.ID, &t.Title, &t.Goal, &t.Blueprint, &t.DurationMinutes,
		&t.PassingScore, &t.AllowBack, &t.ShuffleOptions, &t.Status, &t.Version,
		&t.ParentID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
