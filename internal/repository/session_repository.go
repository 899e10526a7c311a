package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// ErrSessionNotFound is returned when a session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository handles test session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, template_id, candidate_id, share_token, question_ids,
	current_index, status, started_at, finished_at, created_at`

// GetByID fetches a session by id.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// Create inserts a new session with its frozen question order.
func (r *SessionRepository) Create(ctx context.Context, s *model.TestSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO test_sessions
		   (template_id, candidate_id, share_token, question_ids, current_index, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		s.TemplateID, s.CandidateID, s.ShareToken, s.QuestionIDs,
		s.CurrentIdx, s.Status, s.StartedAt,
	).Scan(&s.ID, &s.CreatedAt)
}

// UpdateCursor moves the session's current question index.
func (r *SessionRepository) UpdateCursor(ctx context.Context, id uuid.UUID, index int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions SET current_index = $2
		 WHERE id = $1 AND status = 'IN_PROGRESS'`, id, index)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// MarkTerminal finalizes a session. The status guard makes the transition
// idempotent: a session already terminal is left untouched.
func (r *SessionRepository) MarkTerminal(ctx context.Context, id uuid.UUID, status model.SessionStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_sessions SET status = $2, finished_at = now()
		 WHERE id = $1 AND status IN ('NOT_STARTED', 'IN_PROGRESS')`, id, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListExpired returns in-progress sessions whose template duration has
// elapsed. Used by the timeout sweep.
func (r *SessionRepository) ListExpired(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id
		 FROM test_sessions s
		 JOIN test_templates t ON t.id = s.template_id
		 WHERE s.status = 'IN_PROGRESS'
		   AND s.started_at + make_interval(mins => t.duration_minutes) < now()`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (*model.TestSession, error) {
	var s model.TestSession
	if err := row.Scan(&s.ID, &s.TemplateID, &s.CandidateID, &s.ShareToken,
		&s.QuestionIDs, &s.CurrentIdx, &s.Status, &s.StartedAt, &s.FinishedAt,
		&s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
