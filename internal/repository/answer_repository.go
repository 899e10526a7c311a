package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/psychometrics"
)

// AnswerRepository handles test answer data access. It also serves the
// psychometric audit with per-item response joins.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// ListBySession returns a session's answers in submission order.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.TestAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, question_id, selected_option, likert_value,
		        text_response, skipped, score, max_score, answered_at, updated_at
		 FROM test_answers WHERE session_id = $1 ORDER BY updated_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TestAnswer
	for rows.Next() {
		var a model.TestAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.SelectedOption,
			&a.LikertValue, &a.TextResponse, &a.Skipped, &a.Score, &a.MaxScore,
			&a.AnsweredAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Upsert writes an answer, replacing a previous response to the same question
// within the session.
func (r *AnswerRepository) Upsert(ctx context.Context, a *model.TestAnswer) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO test_answers
		   (session_id, question_id, selected_option, likert_value, text_response,
		    skipped, score, max_score, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (session_id, question_id) DO UPDATE SET
		   selected_option = EXCLUDED.selected_option,
		   likert_value    = EXCLUDED.likert_value,
		   text_response   = EXCLUDED.text_response,
		   skipped         = EXCLUDED.skipped,
		   score           = EXCLUDED.score,
		   max_score       = EXCLUDED.max_score,
		   answered_at     = EXCLUDED.answered_at,
		   updated_at      = now()
		 RETURNING id, updated_at`,
		a.SessionID, a.QuestionID, a.SelectedOption, a.LikertValue, a.TextResponse,
		a.Skipped, a.Score, a.MaxScore, a.AnsweredAt,
	).Scan(&a.ID, &a.UpdatedAt)
}

// ItemResponses returns each scored response to a question paired with the
// responding session's overall percentage. Only answers from sessions with a
// COMPLETED result contribute to item statistics.
func (r *AnswerRepository) ItemResponses(ctx context.Context, questionID uuid.UUID) ([]psychometrics.ItemResponse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.score / a.max_score, res.overall_percentage
		 FROM test_answers a
		 JOIN test_results res ON res.session_id = a.session_id
		 WHERE a.question_id = $1
		   AND a.skipped = false
		   AND a.answered_at IS NOT NULL
		   AND a.score IS NOT NULL
		   AND a.max_score > 0
		   AND res.status = 'COMPLETED'
		   AND res.overall_percentage IS NOT NULL`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []psychometrics.ItemResponse
	for rows.Next() {
		var ir psychometrics.ItemResponse
		if err := rows.Scan(&ir.Fraction, &ir.SessionPercentage); err != nil {
			return nil, err
		}
		out = append(out, ir)
	}
	return out, rows.Err()
}

// QuestionsAnsweredSince returns the distinct questions that received new
// scored responses after the given time. Drives the incremental audit.
func (r *AnswerRepository) QuestionsAnsweredSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT question_id
		 FROM test_answers
		 WHERE answered_at >= $1 AND skipped = false`, since)
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
