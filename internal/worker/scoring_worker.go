package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/config"
	"github.com/psymetric/psymetric-backend/internal/scoring"
)

// ScoringWorker consumes the scoring queue and runs the orchestrator for each
// finalized session. Session completion is already committed by the time a
// job lands here, so a crashed worker loses nothing: the job is requeued or
// the pending sweep catches up.
type ScoringWorker struct {
	orchestrator *scoring.Orchestrator
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewScoringWorker creates a new ScoringWorker.
func NewScoringWorker(orchestrator *scoring.Orchestrator, rdb *redis.Client, log zerolog.Logger) *ScoringWorker {
	return &ScoringWorker{
		orchestrator: orchestrator,
		rdb:          rdb,
		log:          log.With().Str("component", "scoring_worker").Logger(),
	}
}

type scoringJob struct {
	SessionID string `json:"session_id"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ScoringWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.ScoringQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Msg("Scoring job failed, requeueing in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.ScoringQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ScoringWorker) handle(ctx context.Context, raw string) error {
	var job scoringJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// Malformed payloads are dropped, not requeued.
		w.log.Error().Err(err).Str("payload", raw).Msg("Unmarshal error, dropping job")
		return nil
	}
	sessionID, err := uuid.Parse(job.SessionID)
	if err != nil {
		w.log.Error().Err(err).Str("session_id", job.SessionID).Msg("Invalid session id, dropping job")
		return nil
	}

	// The orchestrator owns retries and the PENDING fallback. An error here
	// means even the fallback could not be persisted.
	_, err = w.orchestrator.CalculateAndSaveResult(ctx, sessionID)
	return err
}

// drain processes all remaining jobs before shutdown.
func (w *ScoringWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.ScoringQueue).Result()
		if err != nil {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			w.rdb.RPush(ctx, config.WorkerKey.ScoringQueue, raw)
			break
		}
		drained++
	}
	if drained > 0 {
		w.log.Info().Int("drained", drained).Msg("Drained scoring queue")
	}
}
