package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/config"
	"github.com/psymetric/psymetric-backend/internal/psychometrics"
)

// AuditWorker drives the psychometric audit two ways: a periodic full pass
// over every item with fresh responses, and milestone-triggered recomputes
// for single questions that just crossed a response-count threshold.
type AuditWorker struct {
	analyzer *psychometrics.Analyzer
	rdb      *redis.Client
	interval time.Duration
	log      zerolog.Logger
}

// NewAuditWorker creates a new AuditWorker.
func NewAuditWorker(analyzer *psychometrics.Analyzer, rdb *redis.Client, interval time.Duration, log zerolog.Logger) *AuditWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &AuditWorker{
		analyzer: analyzer,
		rdb:      rdb,
		interval: interval,
		log:      log.With().Str("component", "audit_worker").Logger(),
	}
}

type auditMilestone struct {
	QuestionID string `json:"question_id"`
}

// Start begins the worker loop. Call in a goroutine.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	lastRun := time.Now().Add(-w.interval)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			since := lastRun
			lastRun = time.Now()
			if _, err := w.analyzer.RunAudit(ctx, since); err != nil {
				w.log.Error().Err(err).Msg("Periodic audit failed")
			}
		default:
			w.processMilestone(ctx)
		}
	}
}

func (w *AuditWorker) processMilestone(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.AuditMilestoneQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var milestone auditMilestone
	if err := json.Unmarshal([]byte(result[1]), &milestone); err != nil {
		w.log.Error().Err(err).Str("payload", result[1]).Msg("Unmarshal error, dropping milestone")
		return
	}
	questionID, err := uuid.Parse(milestone.QuestionID)
	if err != nil {
		w.log.Error().Err(err).Str("question_id", milestone.QuestionID).Msg("Invalid question id")
		return
	}

	stats, err := w.analyzer.RecomputeItem(ctx, questionID)
	if err != nil {
		w.log.Error().Err(err).Str("question_id", questionID.String()).Msg("Milestone recompute failed")
		return
	}
	w.log.Info().
		Str("question_id", questionID.String()).
		Int("responses", stats.ResponseCount).
		Str("validity", string(stats.Validity)).
		Msg("Milestone recompute done")
}
