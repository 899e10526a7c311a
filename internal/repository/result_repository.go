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

// ErrResultNotFound is returned when a result does not exist.
var ErrResultNotFound = errors.New("result not found")

// ResultRepository handles test result data access. The session_id column is
// unique, so concurrent scoring passes cannot double-insert.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, session_id, template_id, overall_score, overall_percentage,
	percentile, passed, competency_scores, big_five_profile, extended_metrics,
	total_time_seconds, questions_answered, questions_skipped, total_questions,
	status, completed_at`

// GetBySession fetches the result for a session, or (nil, nil) if none exists.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.TestResult, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM test_results WHERE session_id = $1`, sessionID)
	res, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

// GetByID fetches a result by id.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestResult, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM test_results WHERE id = $1`, id)
	res, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	return res, err
}

// Insert persists a new result. If another scoring pass won the race, the
// existing row is loaded into the given struct instead of failing.
func (r *ResultRepository) Insert(ctx context.Context, result *model.TestResult) error {
	scores, bigFive, extended, err := marshalResultColumns(result)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO test_results
		   (session_id, template_id, overall_score, overall_percentage, percentile,
		    passed, competency_scores, big_five_profile, extended_metrics,
		    total_time_seconds, questions_answered, questions_skipped,
		    total_questions, status, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (session_id) DO NOTHING
		 RETURNING id`,
		result.SessionID, result.TemplateID, result.OverallScore, result.OverallPercentage,
		result.Percentile, result.Passed, scores, bigFive, extended,
		result.TotalTimeSeconds, result.QuestionsAnswered, result.QuestionsSkipped,
		result.TotalQuestions, result.Status, result.CompletedAt,
	).Scan(&result.ID)

	if errors.Is(err, pgx.ErrNoRows) {
		existing, gerr := r.GetBySession(ctx, result.SessionID)
		if gerr != nil {
			return gerr
		}
		if existing == nil {
			return fmt.Errorf("insert result for session %s: conflict but no row", result.SessionID)
		}
		*result = *existing
		return nil
	}
	return err
}

// ReplacePending overwrites a PENDING placeholder with a scored result. The
// status guard keeps a concurrently completed result intact.
func (r *ResultRepository) ReplacePending(ctx context.Context, result *model.TestResult) error {
	scores, bigFive, extended, err := marshalResultColumns(result)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx,
		`UPDATE test_results SET
		   overall_score = $2, overall_percentage = $3, percentile = $4, passed = $5,
		   competency_scores = $6, big_five_profile = $7, extended_metrics = $8,
		   total_time_seconds = $9, questions_answered = $10, questions_skipped = $11,
		   total_questions = $12, status = $13, completed_at = $14
		 WHERE session_id = $1 AND status = 'PENDING'
		 RETURNING id`,
		result.SessionID, result.OverallScore, result.OverallPercentage,
		result.Percentile, result.Passed, scores, bigFive, extended,
		result.TotalTimeSeconds, result.QuestionsAnswered, result.QuestionsSkipped,
		result.TotalQuestions, result.Status, result.CompletedAt,
	).Scan(&result.ID)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrResultNotFound
	}
	return err
}

// UpdateExtended rewrites only the extended metrics column.
func (r *ResultRepository) UpdateExtended(ctx context.Context, resultID uuid.UUID, ext *model.ExtendedMetrics) error {
	payload, err := json.Marshal(ext)
	if err != nil {
		return fmt.Errorf("marshal extended metrics: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE test_results SET extended_metrics = $2 WHERE id = $1`, resultID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResultNotFound
	}
	return nil
}

// CountCompleted counts completed results for a template.
func (r *ResultRepository) CountCompleted(ctx context.Context, templateID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_results
		 WHERE template_id = $1 AND status = 'COMPLETED' AND overall_percentage IS NOT NULL`,
		templateID).Scan(&n)
	return n, err
}

// CountCompletedBelow counts completed results for a template scoring strictly
// below the given percentage.
func (r *ResultRepository) CountCompletedBelow(ctx context.Context, templateID uuid.UUID, percentage float64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_results
		 WHERE template_id = $1 AND status = 'COMPLETED' AND overall_percentage < $2`,
		templateID, percentage).Scan(&n)
	return n, err
}

// ListPendingSessions returns sessions whose result is still a PENDING
// placeholder older than the backoff horizon, oldest first.
func (r *ResultRepository) ListPendingSessions(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id FROM test_results
		 WHERE status = 'PENDING'
		 ORDER BY completed_at
		 LIMIT $1`, limit)
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

func marshalResultColumns(result *model.TestResult) (scores, bigFive, extended []byte, err error) {
	scores, err = json.Marshal(result.CompetencyScores)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal competency scores: %w", err)
	}
	if result.BigFive != nil {
		bigFive, err = json.Marshal(result.BigFive)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal big five profile: %w", err)
		}
	}
	if result.Extended != nil {
		extended, err = json.Marshal(result.Extended)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal extended metrics: %w", err)
		}
	}
	return scores, bigFive, extended, nil
}

func scanResult(row pgx.Row) (*model.TestResult, error) {
	var (
		res      model.TestResult
		scores   []byte
		bigFive  []byte
		extended []byte
	)
	if err := row.Scan(&res.ID, &res.SessionID, &res.TemplateID, &res.OverallScore,
		&res.OverallPercentage, &res.Percentile, &res.Passed, &scores, &bigFive,
		&extended, &res.TotalTimeSeconds, &res.QuestionsAnswered, &res.QuestionsSkipped,
		&res.TotalQuestions, &res.Status, &res.CompletedAt); err != nil {
		return nil, err
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &res.CompetencyScores); err != nil {
			return nil, fmt.Errorf("decode competency scores: %w", err)
		}
	}
	if len(bigFive) > 0 {
		res.BigFive = &model.BigFiveProfile{}
		if err := json.Unmarshal(bigFive, res.BigFive); err != nil {
			return nil, fmt.Errorf("decode big five profile: %w", err)
		}
	}
	if len(extended) > 0 {
		res.Extended = &model.ExtendedMetrics{}
		if err := json.Unmarshal(extended, res.Extended); err != nil {
			return nil, fmt.Errorf("decode extended metrics: %w", err)
		}
	}
	return &res, nil
}
