package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// ItemStatisticsRepository handles per-question psychometric statistics. It
// also serves the variance aggregates behind competency reliability.
type ItemStatisticsRepository struct {
	pool *pgxpool.Pool
}

// NewItemStatisticsRepository creates a new ItemStatisticsRepository.
func NewItemStatisticsRepository(pool *pgxpool.Pool) *ItemStatisticsRepository {
	return &ItemStatisticsRepository{pool: pool}
}

// Get fetches statistics for a question, or (nil, nil) if none exist yet.
func (r *ItemStatisticsRepository) Get(ctx context.Context, questionID uuid.UUID) (*model.ItemStatistics, error) {
	var s model.ItemStatistics
	err := r.pool.QueryRow(ctx,
		`SELECT question_id, response_count, p_value, discrimination,
		        validity_status, last_calculated_at
		 FROM item_statistics WHERE question_id = $1`, questionID,
	).Scan(&s.QuestionID, &s.ResponseCount, &s.PValue, &s.Discrimination,
		&s.Validity, &s.LastCalculatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes recomputed statistics for a question.
func (r *ItemStatisticsRepository) Upsert(ctx context.Context, stats *model.ItemStatistics) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO item_statistics
		   (question_id, response_count, p_value, discrimination, validity_status, last_calculated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (question_id) DO UPDATE SET
		   response_count     = EXCLUDED.response_count,
		   p_value            = EXCLUDED.p_value,
		   discrimination     = EXCLUDED.discrimination,
		   validity_status    = EXCLUDED.validity_status,
		   last_calculated_at = EXCLUDED.last_calculated_at`,
		stats.QuestionID, stats.ResponseCount, stats.PValue, stats.Discrimination,
		stats.Validity, stats.LastCalculatedAt)
	return err
}

// ItemVariances returns the population variance of each item's score fraction
// within a competency, plus the variance of per-session fraction totals over
// the same items. Feeds the reliability coefficient.
func (r *ItemStatisticsRepository) ItemVariances(ctx context.Context, competencyID uuid.UUID) ([]float64, float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(var_pop(a.score / a.max_score), 0)
		 FROM assessment_questions q
		 JOIN behavioral_indicators i ON i.id = q.indicator_id
		 JOIN test_answers a ON a.question_id = q.id
		 WHERE i.competency_id = $1
		   AND a.skipped = false
		   AND a.answered_at IS NOT NULL
		   AND a.score IS NOT NULL
		   AND a.max_score > 0
		 GROUP BY q.id`, competencyID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var itemVars []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, 0, err
		}
		itemVars = append(itemVars, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var totalVar float64
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(var_pop(total), 0) FROM (
		   SELECT a.session_id, SUM(a.score / a.max_score) AS total
		   FROM test_answers a
		   JOIN assessment_questions q ON q.id = a.question_id
		   JOIN behavioral_indicators i ON i.id = q.indicator_id
		   WHERE i.competency_id = $1
		     AND a.skipped = false
		     AND a.answered_at IS NOT NULL
		     AND a.score IS NOT NULL
		     AND a.max_score > 0
		   GROUP BY a.session_id
		 ) sums`, competencyID).Scan(&totalVar)
	if err != nil {
		return nil, 0, err
	}
	return itemVars, totalVar, nil
}
